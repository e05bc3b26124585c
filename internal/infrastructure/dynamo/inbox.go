package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

// InboxRepo reads per-participant notification entries. PK user_id, SK notification_id.
type InboxRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewInboxRepo(client *dynamodb.Client, tableName string) *InboxRepo {
	return &InboxRepo{client: client, tableName: tableName}
}

func (r *InboxRepo) Get(ctx context.Context, userID, notificationID string) (*domain.InboxEntry, error) {
	var e domain.InboxEntry
	if err := getItem(ctx, r.client, r.tableName, compositeKey("user_id", userID, "notification_id", notificationID), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ByCommunity pages the inbox of userID inside communityID, newest first.
func (r *InboxRepo) ByCommunity(userID, communityID string) paginate.Source[domain.InboxEntry] {
	return querySource[domain.InboxEntry]{client: r.client, q: pageQuery{
		table:   r.tableName,
		keyCond: "user_id = :u",
		filter:  "community_id = :c",
		values: map[string]types.AttributeValue{
			":u": strVal(userID),
			":c": strVal(communityID),
		},
	}}
}

// FindConversation returns the entry of userID with peerID about refID of the
// given kind, or ErrNotFound.
func (r *InboxRepo) FindConversation(ctx context.Context, userID, communityID, peerID, refID string, ofType int) (*domain.InboxEntry, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :u"),
		FilterExpression:       aws.String("community_id = :c AND peer_id = :p AND ref_id = :r AND of_type = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": strVal(userID),
			":c": strVal(communityID),
			":p": strVal(peerID),
			":r": strVal(refID),
			":t": &types.AttributeValueMemberN{Value: strconv.Itoa(ofType)},
		},
		ScanIndexForward: aws.Bool(false),
	})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if len(out.Items) > 0 {
			var e domain.InboxEntry
			if err := attributevalue.UnmarshalMap(out.Items[0], &e); err != nil {
				return nil, err
			}
			return &e, nil
		}
	}
	return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
}

// SetRead flags the entry of userID for notificationID as read or unread.
func (r *InboxRepo) SetRead(ctx context.Context, userID, notificationID string, read bool) error {
	return updateItem(ctx, r.client, r.tableName, compositeKey("user_id", userID, "notification_id", notificationID),
		map[string]interface{}{fieldIsRead: read})
}
