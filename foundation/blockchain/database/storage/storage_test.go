package storage_test

import (
	"errors"
	"testing"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database/storage"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Open(t *testing.T) {
	kinds := []string{storage.KindMemory, storage.KindDisk, storage.KindPebble}

	t.Log("Given the need to select the block storage by name.")
	{
		for testID, kind := range kinds {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen opening %s storage.", testID, kind)
				{
					s, err := storage.Open(kind, t.TempDir())
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to open the storage : %s", failed, testID, err)
					}
					defer s.Close()

					if _, err := s.GetBlock(1); !errors.Is(err, database.ErrNotFound) {
						t.Fatalf("\t%s\tTest %d:\tShould start empty : %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould open empty storage.", success, testID)
				}
			}

			t.Run(kind, f)
		}

		if _, err := storage.Open("tape", t.TempDir()); err == nil {
			t.Fatalf("\t%s\tShould reject an unknown kind.", failed)
		}
		t.Logf("\t%s\tShould reject an unknown kind.", success)
	}
}
