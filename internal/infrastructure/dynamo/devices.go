package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/domain"
)

// DeviceRepo provides typed DynamoDB operations for the devices table.
type DeviceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDeviceRepo(client *dynamodb.Client, tableName string) *DeviceRepo {
	return &DeviceRepo{client: client, tableName: tableName}
}

func (r *DeviceRepo) Put(ctx context.Context, d *domain.Device) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal device: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *DeviceRepo) Get(ctx context.Context, deviceID string) (*domain.Device, error) {
	var d domain.Device
	if err := getItem(ctx, r.client, r.tableName, strKey("device_id", deviceID), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DeviceRepo) GetByUUID(ctx context.Context, uuid string) (*domain.Device, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("device_uuid-index"),
		KeyConditionExpression:    aws.String("device_uuid = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(uuid)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("device not found: %w", domain.ErrNotFound)
	}
	var d domain.Device
	if err := attributevalue.UnmarshalMap(out.Items[0], &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByUser returns the enabled devices of userID.
func (r *DeviceRepo) ListByUser(ctx context.Context, userID string) ([]domain.Device, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String("user_id-index"),
		KeyConditionExpression:   aws.String("user_id = :uid"),
		FilterExpression:         aws.String("#en = :t"),
		ExpressionAttributeNames: map[string]string{"#en": fieldEnable},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": strVal(userID),
			":t":   &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	devices := []domain.Device{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// PushTokens returns the push tokens of the enabled devices of userID.
func (r *DeviceRepo) PushTokens(ctx context.Context, userID string) ([]string, error) {
	devices, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var tokens []string
	for _, d := range devices {
		if d.Token != nil && *d.Token != "" {
			tokens = append(tokens, *d.Token)
		}
	}
	return tokens, nil
}

func (r *DeviceRepo) Update(ctx context.Context, deviceID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	return updateItem(ctx, r.client, r.tableName, strKey("device_id", deviceID), updates)
}

// SoftDelete disables the device and forgets its push token.
func (r *DeviceRepo) SoftDelete(ctx context.Context, deviceID string) error {
	return r.removeToken(ctx, deviceID, true)
}

// removeToken drops the token attribute instead of setting it to NULL:
// token is a GSI key and must be a string or absent.
func (r *DeviceRepo) removeToken(ctx context.Context, deviceID string, disable bool) error {
	expr := "SET updated_at = :now REMOVE #tk"
	values := map[string]types.AttributeValue{
		":now": strVal(time.Now().UTC().Format(time.RFC3339Nano)),
	}
	names := map[string]string{"#tk": fieldToken, "#pk": "device_id"}
	if disable {
		expr = "SET updated_at = :now, #en = :f REMOVE #tk"
		names["#en"] = fieldEnable
		values[":f"] = &types.AttributeValueMemberBOOL{Value: false}
	}
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("device_id", deviceID),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return mapConditionErr(err, domain.ErrNotFound)
}

// ForgetToken removes the push token of one device, keeping it enabled.
func (r *DeviceRepo) ForgetToken(ctx context.Context, deviceID string) error {
	return r.removeToken(ctx, deviceID, false)
}

// ClearToken removes a push token that FCM reported as unregistered.
func (r *DeviceRepo) ClearToken(ctx context.Context, token string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("token-index"),
		KeyConditionExpression:    aws.String("#tk = :tk"),
		ExpressionAttributeNames:  map[string]string{"#tk": fieldToken},
		ExpressionAttributeValues: map[string]types.AttributeValue{":tk": strVal(token)},
	})
	if err != nil {
		return err
	}
	for _, item := range out.Items {
		id, ok := item["device_id"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		if err := r.removeToken(ctx, id.Value, false); err != nil {
			return err
		}
	}
	return nil
}
