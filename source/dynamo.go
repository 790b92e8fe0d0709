package source

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	awscreds "github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/jpalmerr/distroboard/credentials"
)

// DynamoSource is a [Source] backed by a DynamoDB table.
//
// The table name is the clustered video stream name. Items are keyed by
// the "domain" attribute.
type DynamoSource struct {
	api   dynamodbiface.DynamoDBAPI
	table string
}

// DynamoConfig holds optional settings for [NewDynamoSource].
type DynamoConfig struct {
	// Endpoint overrides the service endpoint, e.g. http://localhost:8000
	// for DynamoDB Local. Empty uses the regional AWS endpoint.
	Endpoint string
}

// NewDynamoSource creates a DynamoSource using static credentials.
//
// Returns an error if the credentials are incomplete or the SDK session
// cannot be created.
func NewDynamoSource(creds credentials.Credentials, cfg DynamoConfig) (*DynamoSource, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("stream name, access key id and secret access key are required")
	}
	creds = creds.WithDefaults()

	awsConfig := &aws.Config{
		Credentials: awscreds.NewStaticCredentials(creds.AccessKeyID, creds.SecretAccessKey, ""),
		Region:      aws.String(creds.Region),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return NewDynamoSourceWithAPI(dynamodb.New(sess), creds.StreamName), nil
}

// NewDynamoSourceWithAPI wraps an existing DynamoDB client.
func NewDynamoSourceWithAPI(api dynamodbiface.DynamoDBAPI, table string) *DynamoSource {
	return &DynamoSource{api: api, table: table}
}

// NewDynamoFactory returns a [Factory] producing DynamoSources with cfg.
func NewDynamoFactory(cfg DynamoConfig) Factory {
	return func(creds credentials.Credentials) (Source, error) {
		return NewDynamoSource(creds, cfg)
	}
}

// Table returns the name of the scanned table.
func (d *DynamoSource) Table() string {
	return d.table
}

// Scan reads every page of the table.
func (d *DynamoSource) Scan(ctx context.Context) ([]Item, error) {
	var (
		items     []Item
		decodeErr error
	)

	input := &dynamodb.ScanInput{
		TableName: aws.String(d.table),
	}
	err := d.api.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		for _, av := range page.Items {
			item, err := decodeItem(av)
			if err != nil {
				decodeErr = fmt.Errorf("item %d: %w", len(items), err)
				return false
			}
			items = append(items, item)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	return items, nil
}

// SetDistroOpen updates distro_open on the item keyed by domain.
// The update carries no condition expression.
func (d *DynamoSource) SetDistroOpen(ctx context.Context, domain string, open bool) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(d.table),
		Key: map[string]*dynamodb.AttributeValue{
			AttrDomain: {S: aws.String(domain)},
		},
		UpdateExpression: aws.String("SET #open = :open"),
		ExpressionAttributeNames: map[string]*string{
			"#open": aws.String(AttrDistroOpen),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":open": {BOOL: aws.Bool(open)},
		},
	}

	if _, err := d.api.UpdateItemWithContext(ctx, input); err != nil {
		return err
	}
	return nil
}

// rawItem mirrors Item with pointer fields so absent attributes are detectable.
type rawItem struct {
	Domain        *string  `dynamodbav:"domain"`
	Name          *string  `dynamodbav:"name"`
	Region        *string  `dynamodbav:"region"`
	PlaylistFresh *bool    `dynamodbav:"playlist_fresh"`
	DistroOpen    *bool    `dynamodbav:"distro_open"`
	ReplicatedAt  *float64 `dynamodbav:"aws:rep:updatetime"`
}

// decodeItem converts a raw attribute map into an Item, rejecting missing
// and wrongly typed attributes.
func decodeItem(av map[string]*dynamodb.AttributeValue) (Item, error) {
	var raw rawItem
	if err := dynamodbattribute.UnmarshalMap(av, &raw); err != nil {
		return Item{}, fmt.Errorf("%w: %v", ErrMalformedItem, err)
	}

	if raw.Domain == nil || *raw.Domain == "" {
		return Item{}, fmt.Errorf("%w: missing %s", ErrMalformedItem, AttrDomain)
	}
	domain := *raw.Domain

	missing := func(attr string) error {
		return fmt.Errorf("%w: %s: missing %s", ErrMalformedItem, domain, attr)
	}
	switch {
	case raw.Name == nil:
		return Item{}, missing(AttrName)
	case raw.Region == nil:
		return Item{}, missing(AttrRegion)
	case raw.PlaylistFresh == nil:
		return Item{}, missing(AttrPlaylistFresh)
	case raw.DistroOpen == nil:
		return Item{}, missing(AttrDistroOpen)
	case raw.ReplicatedAt == nil:
		return Item{}, missing(AttrReplicatedAt)
	}

	return Item{
		Domain:        domain,
		Name:          *raw.Name,
		Region:        *raw.Region,
		PlaylistFresh: *raw.PlaylistFresh,
		DistroOpen:    *raw.DistroOpen,
		ReplicatedAt:  *raw.ReplicatedAt,
	}, nil
}
