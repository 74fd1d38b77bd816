package writer

import (
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/domain"
)

// parquetEvent is the columnar row layout of a cleaned event. Pointer fields
// are optional columns; the partition keys are carried by the object path,
// not by the file.
type parquetEvent struct {
	EventTS     int64    `parquet:"name=event_ts, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	EventDate   string   `parquet:"name=event_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserID      string   `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SessionID   string   `parquet:"name=session_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	EventType   string   `parquet:"name=event_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductID   *string  `parquet:"name=product_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Quantity    *int32   `parquet:"name=quantity, type=INT32, repetitiontype=OPTIONAL"`
	Price       *float64 `parquet:"name=price, type=DOUBLE, repetitiontype=OPTIONAL"`
	Category    *string  `parquet:"name=category, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	SearchQuery *string  `parquet:"name=search_query, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Revenue     *float64 `parquet:"name=revenue, type=DOUBLE, repetitiontype=OPTIONAL"`
}

func toParquetEvent(event *domain.CleanedEvent) parquetEvent {
	row := parquetEvent{
		EventTS:     event.EventTS.UTC().UnixMicro(),
		EventDate:   event.EventDate,
		UserID:      event.UserID,
		SessionID:   event.SessionID,
		EventType:   event.EventType,
		ProductID:   event.ProductID,
		Quantity:    event.Quantity,
		Category:    event.Category,
		SearchQuery: event.SearchQuery,
	}

	if event.Price != nil {
		price, _ := event.Price.Float64()
		row.Price = &price
	}
	if event.Revenue != nil {
		revenue, _ := event.Revenue.Float64()
		row.Revenue = &revenue
	}

	return row
}
