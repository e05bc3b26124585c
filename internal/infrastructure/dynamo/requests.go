package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sharinghood-api/internal/domain"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

// RequestRepo stores item requests.
type RequestRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRequestRepo(client *dynamodb.Client, tableName string) *RequestRepo {
	return &RequestRepo{client: client, tableName: tableName}
}

func (r *RequestRepo) Put(ctx context.Context, req *domain.ItemRequest) error {
	return putNew(ctx, r.client, r.tableName, "request_id", req)
}

func (r *RequestRepo) Get(ctx context.Context, requestID string) (*domain.ItemRequest, error) {
	var req domain.ItemRequest
	if err := getItem(ctx, r.client, r.tableName, strKey("request_id", requestID), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepo) Inactivate(ctx context.Context, requestID string) error {
	return updateItem(ctx, r.client, r.tableName, strKey("request_id", requestID),
		map[string]interface{}{fieldIsActive: false})
}

func (r *RequestRepo) ActiveByCommunity(communityID string) paginate.Source[domain.ItemRequest] {
	return querySource[domain.ItemRequest]{client: r.client, q: activeInCommunity(r.tableName, "community_id-request_id-index", communityID)}
}
