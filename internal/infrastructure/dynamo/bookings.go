package dynamo

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

// BookingRepo reads and updates bookings. New bookings are written together
// with their notification by NotificationRepo.Create.
type BookingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBookingRepo(client *dynamodb.Client, tableName string) *BookingRepo {
	return &BookingRepo{client: client, tableName: tableName}
}

func (r *BookingRepo) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	var b domain.Booking
	if err := getItem(ctx, r.client, r.tableName, strKey("booking_id", bookingID), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateStatus moves a pending booking to status. A booking that is no longer
// pending yields ErrConflict.
func (r *BookingRepo) UpdateStatus(ctx context.Context, bookingID string, status int) (*domain.Booking, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("booking_id", bookingID),
		UpdateExpression:    aws.String("SET #st = :st, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(booking_id) AND #st = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#st": fieldStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":st":      &types.AttributeValueMemberN{Value: strconv.Itoa(status)},
			":pending": &types.AttributeValueMemberN{Value: strconv.Itoa(domain.BookingPending)},
			":now":     strVal(time.Now().UTC().Format(time.RFC3339Nano)),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, mapConditionErr(err, domain.ErrConflict)
	}
	var b domain.Booking
	if err := attributevalue.UnmarshalMap(out.Attributes, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ByBooker pages the bookings userID made inside communityID, newest first.
func (r *BookingRepo) ByBooker(userID, communityID string) paginate.Source[domain.Booking] {
	return querySource[domain.Booking]{client: r.client, q: pageQuery{
		table:   r.tableName,
		index:   "booker_id-booking_id-index",
		keyCond: "booker_id = :u",
		filter:  "community_id = :c",
		values: map[string]types.AttributeValue{
			":u": strVal(userID),
			":c": strVal(communityID),
		},
	}}
}
