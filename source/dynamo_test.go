package source

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/jpalmerr/distroboard/credentials"
)

// fakeDynamo implements the two DynamoDB calls the source uses.
// Any other call panics via the nil embedded interface.
type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI

	pages   [][]map[string]*dynamodb.AttributeValue
	scanErr error

	scanInputs   []*dynamodb.ScanInput
	updateInputs []*dynamodb.UpdateItemInput
	updateErr    error
}

func (f *fakeDynamo) ScanPagesWithContext(ctx aws.Context, input *dynamodb.ScanInput, fn func(*dynamodb.ScanOutput, bool) bool, _ ...request.Option) error {
	f.scanInputs = append(f.scanInputs, input)
	if f.scanErr != nil {
		return f.scanErr
	}
	for i, page := range f.pages {
		last := i == len(f.pages)-1
		if !fn(&dynamodb.ScanOutput{Items: page}, last) {
			return nil
		}
	}
	return nil
}

func (f *fakeDynamo) UpdateItemWithContext(ctx aws.Context, input *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	f.updateInputs = append(f.updateInputs, input)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

// rawRow builds a well-formed item.
func rawRow(domain string, distroOpen bool, replicatedAt string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		AttrDomain:        {S: aws.String(domain)},
		AttrName:          {S: aws.String("Channel " + domain)},
		AttrRegion:        {S: aws.String("eu-west-1")},
		AttrPlaylistFresh: {BOOL: aws.Bool(true)},
		AttrDistroOpen:    {BOOL: aws.Bool(distroOpen)},
		AttrReplicatedAt:  {N: aws.String(replicatedAt)},
	}
}

func TestDynamoSource_ScanAllPages(t *testing.T) {
	api := &fakeDynamo{
		pages: [][]map[string]*dynamodb.AttributeValue{
			{rawRow("a.example.com", true, "1700000000.5")},
			{rawRow("b.example.com", false, "1700000100"), rawRow("c.example.com", true, "1700000200.25")},
		},
	}
	src := NewDynamoSourceWithAPI(api, "live-stream")

	items, err := src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Scan() returned %d items, want 3", len(items))
	}

	first := items[0]
	if first.Domain != "a.example.com" || first.Name != "Channel a.example.com" || first.Region != "eu-west-1" {
		t.Errorf("items[0] = %+v", first)
	}
	if !first.PlaylistFresh || !first.DistroOpen {
		t.Errorf("items[0] flags = fresh:%v open:%v, want true/true", first.PlaylistFresh, first.DistroOpen)
	}
	if first.ReplicatedAt != 1700000000.5 {
		t.Errorf("items[0].ReplicatedAt = %v, want 1700000000.5", first.ReplicatedAt)
	}
	if items[1].DistroOpen {
		t.Error("items[1].DistroOpen = true, want false")
	}

	if got := aws.StringValue(api.scanInputs[0].TableName); got != "live-stream" {
		t.Errorf("scanned table = %q, want live-stream", got)
	}
}

func TestDynamoSource_ScanEmptyTable(t *testing.T) {
	src := NewDynamoSourceWithAPI(&fakeDynamo{}, "empty")

	items, err := src.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Scan() returned %d items, want 0", len(items))
	}
}

func TestDynamoSource_ScanTransportError(t *testing.T) {
	wantErr := errors.New("AccessDeniedException: not authorized")
	src := NewDynamoSourceWithAPI(&fakeDynamo{scanErr: wantErr}, "t")

	_, err := src.Scan(context.Background())
	if !errors.Is(err, wantErr) {
		t.Errorf("Scan() error = %v, want %v", err, wantErr)
	}
}

func TestDynamoSource_ScanMalformedItems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]*dynamodb.AttributeValue)
	}{
		{"missing domain", func(m map[string]*dynamodb.AttributeValue) { delete(m, AttrDomain) }},
		{"empty domain", func(m map[string]*dynamodb.AttributeValue) { m[AttrDomain] = &dynamodb.AttributeValue{S: aws.String("")} }},
		{"missing name", func(m map[string]*dynamodb.AttributeValue) { delete(m, AttrName) }},
		{"missing region", func(m map[string]*dynamodb.AttributeValue) { delete(m, AttrRegion) }},
		{"missing playlist_fresh", func(m map[string]*dynamodb.AttributeValue) { delete(m, AttrPlaylistFresh) }},
		{"missing distro_open", func(m map[string]*dynamodb.AttributeValue) { delete(m, AttrDistroOpen) }},
		{"missing timestamp", func(m map[string]*dynamodb.AttributeValue) { delete(m, AttrReplicatedAt) }},
		{"null timestamp", func(m map[string]*dynamodb.AttributeValue) {
			m[AttrReplicatedAt] = &dynamodb.AttributeValue{NULL: aws.Bool(true)}
		}},
		{"string flag", func(m map[string]*dynamodb.AttributeValue) {
			m[AttrDistroOpen] = &dynamodb.AttributeValue{S: aws.String("true")}
		}},
		{"string timestamp", func(m map[string]*dynamodb.AttributeValue) {
			m[AttrReplicatedAt] = &dynamodb.AttributeValue{S: aws.String("yesterday")}
		}},
		{"unparseable timestamp", func(m map[string]*dynamodb.AttributeValue) {
			m[AttrReplicatedAt] = &dynamodb.AttributeValue{N: aws.String("not-a-number")}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := rawRow("bad.example.com", true, "1700000000")
			tt.mutate(bad)
			api := &fakeDynamo{
				pages: [][]map[string]*dynamodb.AttributeValue{
					{rawRow("good.example.com", true, "1700000000"), bad},
				},
			}

			items, err := NewDynamoSourceWithAPI(api, "t").Scan(context.Background())
			if !errors.Is(err, ErrMalformedItem) {
				t.Fatalf("Scan() error = %v, want ErrMalformedItem", err)
			}
			if items != nil {
				t.Errorf("Scan() returned %d items alongside error, want none", len(items))
			}
		})
	}
}

func TestDynamoSource_SetDistroOpen(t *testing.T) {
	for _, open := range []bool{true, false} {
		api := &fakeDynamo{}
		src := NewDynamoSourceWithAPI(api, "live-stream")

		if err := src.SetDistroOpen(context.Background(), "a.example.com", open); err != nil {
			t.Fatalf("SetDistroOpen(%v) error = %v", open, err)
		}
		if len(api.updateInputs) != 1 {
			t.Fatalf("UpdateItem called %d times, want 1", len(api.updateInputs))
		}

		in := api.updateInputs[0]
		if got := aws.StringValue(in.TableName); got != "live-stream" {
			t.Errorf("TableName = %q, want live-stream", got)
		}
		if got := aws.StringValue(in.Key[AttrDomain].S); got != "a.example.com" {
			t.Errorf("Key domain = %q, want a.example.com", got)
		}
		if len(in.Key) != 1 {
			t.Errorf("Key has %d attributes, want 1", len(in.Key))
		}
		if got := aws.StringValue(in.ExpressionAttributeNames["#open"]); got != AttrDistroOpen {
			t.Errorf("#open = %q, want %q", got, AttrDistroOpen)
		}
		if got := aws.BoolValue(in.ExpressionAttributeValues[":open"].BOOL); got != open {
			t.Errorf(":open = %v, want %v", got, open)
		}
		if in.ConditionExpression != nil {
			t.Errorf("ConditionExpression = %q, want none", aws.StringValue(in.ConditionExpression))
		}
	}
}

func TestDynamoSource_SetDistroOpenError(t *testing.T) {
	wantErr := errors.New("ProvisionedThroughputExceededException")
	src := NewDynamoSourceWithAPI(&fakeDynamo{updateErr: wantErr}, "t")

	if err := src.SetDistroOpen(context.Background(), "a", false); !errors.Is(err, wantErr) {
		t.Errorf("SetDistroOpen() error = %v, want %v", err, wantErr)
	}
}

func TestNewDynamoSource_RequiresCompleteCredentials(t *testing.T) {
	_, err := NewDynamoSource(credentials.Credentials{StreamName: "s"}, DynamoConfig{})
	if err == nil {
		t.Fatal("NewDynamoSource() expected error for incomplete credentials")
	}
}

func TestNewDynamoSource_UsesStreamNameAsTable(t *testing.T) {
	src, err := NewDynamoSource(credentials.Credentials{
		StreamName:      "clustered-stream",
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
	}, DynamoConfig{Endpoint: "http://localhost:8000"})
	if err != nil {
		t.Fatalf("NewDynamoSource() error = %v", err)
	}
	if src.Table() != "clustered-stream" {
		t.Errorf("Table() = %q, want clustered-stream", src.Table())
	}
}
