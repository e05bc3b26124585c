package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sharinghood-api/internal/domain"
)

// NotificationRepo writes notifications together with their inbox entries and,
// for booking notifications, the booking itself.
type NotificationRepo struct {
	client       *dynamodb.Client
	tableName    string
	inboxTable   string
	bookingTable string
}

func NewNotificationRepo(client *dynamodb.Client, tableName, inboxTable, bookingTable string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName, inboxTable: inboxTable, bookingTable: bookingTable}
}

// Create writes n, one inbox entry per participant and booking (may be nil)
// in a single transaction.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification, entries []domain.InboxEntry, booking *domain.Booking) error {
	items, err := notificationWrites(r.tableName, r.inboxTable, r.bookingTable, n, entries, booking)
	if err != nil {
		return err
	}
	return transactCreate(ctx, r.client, "notification "+n.NotificationID, items)
}

func notificationWrites(table, inboxTable, bookingTable string, n *domain.Notification, entries []domain.InboxEntry, booking *domain.Booking) ([]types.TransactWriteItem, error) {
	items := make([]types.TransactWriteItem, 0, len(entries)+2)
	w, err := newItemWrite(table, "notification_id", n)
	if err != nil {
		return nil, err
	}
	items = append(items, w)
	for i := range entries {
		w, err := newItemWrite(inboxTable, "user_id", &entries[i])
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	if booking != nil {
		w, err := newItemWrite(bookingTable, "booking_id", booking)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, nil
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	var n domain.Notification
	if err := getItem(ctx, r.client, r.tableName, strKey("notification_id", notificationID), &n); err != nil {
		return nil, err
	}
	return &n, nil
}
