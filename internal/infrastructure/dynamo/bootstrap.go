package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/config"
	"github.com/sharinghood-api/internal/logging"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Tables that already exist are skipped, so it runs on every startup.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	for _, in := range tableDefinitions(tables) {
		createTable(ctx, client, in)
	}
	enableTTL(ctx, client, tables.UserVerifications, "expires_at")
}

func tableDefinitions(t config.DynamoTables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		table(t.Users, []string{"user_id", "email"}, key("user_id", ""),
			gsi("email-index", "email", "")),
		table(t.Sessions, []string{"session_id", "user_id", "refresh_token"}, key("session_id", ""),
			gsi("user_id-index", "user_id", ""),
			gsi("refresh_token-index", "refresh_token", "")),
		table(t.Devices, []string{"device_id", "user_id", "device_uuid", "token"}, key("device_id", ""),
			gsi("user_id-index", "user_id", ""),
			gsi("device_uuid-index", "device_uuid", ""),
			gsi("token-index", "token", "")),
		table(t.Files, []string{"file_id", "uploaded_by_user_id"}, key("file_id", ""),
			gsi("uploaded_by_user_id-index", "uploaded_by_user_id", "")),
		table(t.UserVerifications, []string{"user_id", "type"}, key("user_id", "type")),
		table(t.Communities, []string{"community_id", "code"}, key("community_id", ""),
			gsi("code-index", "code", "")),
		table(t.Members, []string{"community_id", "user_id", "joined_at"}, key("community_id", "user_id"),
			gsi("user_id-index", "user_id", ""),
			gsi("community_id-joined_at-index", "community_id", "joined_at")),
		table(t.Posts, []string{"post_id", "community_id"}, key("post_id", ""),
			gsi("community_id-post_id-index", "community_id", "post_id")),
		table(t.Requests, []string{"request_id", "community_id"}, key("request_id", ""),
			gsi("community_id-request_id-index", "community_id", "request_id")),
		table(t.Threads, []string{"thread_id", "parent_id"}, key("thread_id", ""),
			gsi("parent_id-thread_id-index", "parent_id", "thread_id")),
		table(t.Bookings, []string{"booking_id", "booker_id"}, key("booking_id", ""),
			gsi("booker_id-booking_id-index", "booker_id", "booking_id")),
		table(t.Notifications, []string{"notification_id"}, key("notification_id", "")),
		table(t.Inbox, []string{"user_id", "notification_id"}, key("user_id", "notification_id")),
		table(t.Messages, []string{"notification_id", "message_id"}, key("notification_id", "message_id")),
	}
}

// table builds a pay-per-request table whose listed attributes are all strings.
func table(name string, attrs []string, ks []types.KeySchemaElement, indexes ...types.GlobalSecondaryIndex) *dynamodb.CreateTableInput {
	defs := make([]types.AttributeDefinition, len(attrs))
	for i, a := range attrs {
		defs[i] = types.AttributeDefinition{AttributeName: aws.String(a), AttributeType: types.ScalarAttributeTypeS}
	}
	in := &dynamodb.CreateTableInput{
		TableName:            aws.String(name),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: defs,
		KeySchema:            ks,
	}
	if len(indexes) > 0 {
		in.GlobalSecondaryIndexes = indexes
	}
	return in
}

func key(hashKey, sortKey string) []types.KeySchemaElement {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return ks
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  key(hashKey, sortKey),
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			logging.Warn().Err(err).Str("table", *input.TableName).Msg("could not create table")
		}
		return
	}
	logging.Info().Str("table", *input.TableName).Msg("created table")
}

func enableTTL(ctx context.Context, client *dynamodb.Client, tableName, ttlAttr string) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		logging.Warn().Err(err).Str("table", tableName).Msg("could not enable TTL")
	}
}
