// Package backorder owns the back-order demand lines: the pick-status
// state machine, picklist batching, and the reconciliation that keeps
// bo_items in step with the daily BACKLOG/REDCON extracts.
package backorder

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

// Service wraps the demand-line operations around one store.
type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service {
	return &Service{db: db}
}

// SyncResult reports what a reconciliation run did, for operator
// confirmation.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// Sync merges fresh BACKLOG and REDCON extracts into bo_items in one
// transaction: stale lines (keys no longer in the merged intersection)
// are deleted whatever their pick status, then every merged record is
// upserted. Lines found by key keep their pick_status and fulfilled
// counter (clamped to the new requirement), so re-importing the same
// extracts is idempotent and work mid-pick is never lost while its key
// remains upstream.
//
// A crash mid-import rolls the store back to its pre-import state.
func (s *Service) Sync(backlog []BacklogRecord, redcon []RedconRecord) (SyncResult, error) {
	merged := Merge(backlog, redcon)
	keys := Keys(merged)

	var result SyncResult
	err := s.db.WithTx(func(tx *sql.Tx) error {
		stale, err := s.db.DeleteStaleBOItemsTx(tx, keys)
		if err != nil {
			return fmt.Errorf("stale cleanup: %w", err)
		}
		result.Deleted = int(stale)
		for _, item := range merged {
			created, err := s.db.UpsertBOItemTx(tx, item)
			if err != nil {
				return fmt.Errorf("upsert %s/%s: %w", item.GoItem, item.PartNumber, err)
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}
	log.Printf("backorder sync: created=%d updated=%d deleted=%d", result.Created, result.Updated, result.Deleted)
	return result, nil
}

// NextUrgentJob returns the job prefix whose NOT_STARTED lines carry
// the lowest urgency rank, or "" when nothing is waiting.
func (s *Service) NextUrgentJob() (string, error) {
	urgencies, err := s.db.ListUrgentGoNumbers()
	if err != nil {
		return "", err
	}
	if len(urgencies) == 0 {
		return "", nil
	}
	return urgencies[0].GoNumber, nil
}

// UrgentJobs lists every job with lines awaiting a picklist, most
// urgent first.
func (s *Service) UrgentJobs() ([]store.GoUrgency, error) {
	return s.db.ListUrgentGoNumbers()
}

// InProgressJobs lists jobs whose picklist is out on the floor.
func (s *Service) InProgressJobs() ([]store.GoUrgency, error) {
	return s.db.ListInProgressGoNumbers()
}

// PicklistItems fetches every line of a job for rendering.
func (s *Service) PicklistItems(goNumber string) ([]store.BOItem, error) {
	return s.db.ListItemsForGo(goNumber)
}

// StartPicking moves every NOT_STARTED line of the job to IN_PROGRESS.
// Called when the picklist is generated; the batch moves together.
func (s *Service) StartPicking(goNumber string) ([]store.BOItem, error) {
	items, err := s.db.ListItemsForGo(goNumber)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, item := range items {
		if item.PickStatus == store.PickNotStarted {
			ids = append(ids, item.ID)
		}
	}
	if err := s.db.SetBOStatus(ids, store.PickInProgress); err != nil {
		return nil, err
	}
	return s.db.ListItemsForGo(goNumber)
}

// MarkPicking parks lines in the manual PICKING state. PICKING lines
// survive reconciliation while their key remains upstream.
func (s *Service) MarkPicking(ids []int64) error {
	return s.db.SetBOStatus(ids, store.PickPicking)
}

// FulfillmentUpdate is one picked quantity against one demand line.
type FulfillmentUpdate struct {
	ItemID    int64 `json:"item_id"`
	PickedQty int   `json:"picked_qty"`
}

// BatchFulfill increments each line's fulfilled counter, then promotes
// to COMPLETED every line whose counter reached its requirement. All
// increments land before any completion check runs.
func (s *Service) BatchFulfill(updates []FulfillmentUpdate) (completed []int64, err error) {
	if len(updates) == 0 {
		return nil, nil
	}
	err = s.db.WithTx(func(tx *sql.Tx) error {
		ids := make([]int64, 0, len(updates))
		for _, u := range updates {
			if u.PickedQty < 0 {
				return fmt.Errorf("negative picked quantity for item %d", u.ItemID)
			}
			if u.PickedQty == 0 {
				continue
			}
			if err := s.db.AddBOFulfillmentTx(tx, u.ItemID, u.PickedQty); err != nil {
				return err
			}
			ids = append(ids, u.ItemID)
		}
		var promoteErr error
		completed, promoteErr = s.db.PromoteCompletedTx(tx, ids)
		return promoteErr
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// OpenLines returns the unfinished IN_PROGRESS lines of a job for the
// fulfillment update screen.
func (s *Service) OpenLines(goNumber string) ([]store.BOItem, error) {
	return s.db.ListOpenLinesForGo(goNumber)
}

// StatusSummary counts a job's lines per pick status.
func (s *Service) StatusSummary(goNumber string) (map[string]int, error) {
	return s.db.GoStatusSummary(goNumber)
}
