package events

const (
	EventTypeRequestCreated  = "purchase_request.created"
	EventTypeRequestApproved = "purchase_request.approved"
	EventTypeRequestRejected = "purchase_request.rejected"

	EventTypeCatalogImported = "catalog.imported"

	EventTypeDbRequestLogged = "audit.db_request"
)

// RequestTransitionEvent is published after a lifecycle transition commits.
type RequestTransitionEvent struct {
	BaseEvent
	RequestID int64  `json:"request_id"`
	ItemID    int64  `json:"item_id"`
	Qty       int64  `json:"qty"`
	ActorID   int64  `json:"actor_id"`
	Status    string `json:"status"`
}

func NewRequestTransitionEvent(eventType string, requestID, itemID, qty, actorID int64, status string) *RequestTransitionEvent {
	return &RequestTransitionEvent{
		BaseEvent: newBaseEvent(eventType, map[string]interface{}{
			"request_id": requestID,
			"item_id":    itemID,
			"qty":        qty,
			"actor_id":   actorID,
			"status":     status,
		}),
		RequestID: requestID,
		ItemID:    itemID,
		Qty:       qty,
		ActorID:   actorID,
		Status:    status,
	}
}

// CatalogImportedEvent summarises one importer write.
type CatalogImportedEvent struct {
	BaseEvent
	Target   string `json:"target"`
	Search   string `json:"search"`
	Upserted int    `json:"upserted"`
	Matched  int    `json:"matched"`
	Failed   int    `json:"failed"`
}

func NewCatalogImportedEvent(target, search string, upserted, matched, failed int) *CatalogImportedEvent {
	return &CatalogImportedEvent{
		BaseEvent: newBaseEvent(EventTypeCatalogImported, map[string]interface{}{
			"target":   target,
			"search":   search,
			"upserted": upserted,
			"matched":  matched,
			"failed":   failed,
		}),
		Target:   target,
		Search:   search,
		Upserted: upserted,
		Matched:  matched,
		Failed:   failed,
	}
}

// DbRequestLoggedEvent carries one audit record to its persistence handler.
// Record is owned by the audit package.
type DbRequestLoggedEvent struct {
	BaseEvent
	Record interface{}
}

func NewDbRequestLoggedEvent(record interface{}) *DbRequestLoggedEvent {
	return &DbRequestLoggedEvent{
		BaseEvent: newBaseEvent(EventTypeDbRequestLogged, nil),
		Record:    record,
	}
}
