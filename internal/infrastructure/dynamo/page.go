package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/pkg/paginate"
)

// pageQuery is the predicate of a paginated list. The COUNT query and the
// item query are both built from the same value, so they cannot drift apart.
type pageQuery struct {
	table   string
	index   string // empty for the base table
	keyCond string
	filter  string // optional
	names   map[string]string
	values  map[string]types.AttributeValue
}

// input builds a newest-first QueryInput for the predicate.
func (q pageQuery) input() *dynamodb.QueryInput {
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(q.table),
		KeyConditionExpression:    aws.String(q.keyCond),
		ExpressionAttributeValues: q.values,
		ScanIndexForward:          aws.Bool(false),
	}
	if q.index != "" {
		in.IndexName = aws.String(q.index)
	}
	if q.filter != "" {
		in.FilterExpression = aws.String(q.filter)
	}
	if len(q.names) > 0 {
		in.ExpressionAttributeNames = q.names
	}
	return in
}

// countItems returns the number of items matching q, following every page.
func countItems(ctx context.Context, client dynamodb.QueryAPIClient, q pageQuery) (int, error) {
	in := q.input()
	in.Select = types.SelectCount
	p := dynamodb.NewQueryPaginator(client, in)
	total := 0
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", q.table, err)
		}
		total += int(out.Count)
	}
	return total, nil
}

// queryPage skips offset matching items and returns up to limit after them.
// DynamoDB has no server-side offset, so skipped items are still read.
func queryPage[T any](ctx context.Context, client dynamodb.QueryAPIClient, q pageQuery, offset, limit int) ([]T, error) {
	p := dynamodb.NewQueryPaginator(client, q.input())
	skipped := 0
	raw := make([]map[string]types.AttributeValue, 0, limit)
	for p.HasMorePages() && len(raw) < limit {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.table, err)
		}
		for _, item := range out.Items {
			if skipped < offset {
				skipped++
				continue
			}
			raw = append(raw, item)
			if len(raw) == limit {
				break
			}
		}
	}
	items := make([]T, 0, len(raw))
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", q.table, err)
	}
	return items, nil
}

// querySource exposes a pageQuery as a paginate.Source.
type querySource[T any] struct {
	client dynamodb.QueryAPIClient
	q      pageQuery
}

var _ paginate.Source[struct{}] = querySource[struct{}]{}

func (s querySource[T]) Count(ctx context.Context) (int, error) {
	return countItems(ctx, s.client, s.q)
}

func (s querySource[T]) List(ctx context.Context, offset, limit int) ([]T, error) {
	return queryPage[T](ctx, s.client, s.q, offset, limit)
}
