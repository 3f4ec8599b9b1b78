package services

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/Dosada05/federation-registry/models"
)

// Whatever reviewers and representatives do, a region never holds more than
// one PENDING or APPROVED registration per category.
func TestRegistrationSlotProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := newTestEnv()
		ctx := context.Background()
		reps := []models.Actor{rep1, rep2, rep2b}
		categories := []int{openCategory, openCategoryF}

		var ids []int
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch op := rapid.IntRange(0, 3).Draw(t, "op"); {
			case op == 0 || len(ids) == 0:
				actor := rapid.SampledFrom(reps).Draw(t, "actor")
				category := rapid.SampledFrom(categories).Draw(t, "category")
				n := rapid.IntRange(1, 4).Draw(t, "athletes")
				reg, err := env.regs.Create(ctx, actor, createInput(*actor.RegionID, category, n, 1))
				switch {
				case err == nil:
					ids = append(ids, reg.ID)
				case errors.Is(err, ErrDuplicateActiveRegistration):
				default:
					t.Fatalf("create: %v", err)
				}
			case op == 1:
				id := rapid.SampledFrom(ids).Draw(t, "approve")
				if _, err := env.regs.Approve(ctx, admin, id); err != nil && !errors.Is(err, ErrInvalidState) {
					t.Fatalf("approve: %v", err)
				}
			case op == 2:
				id := rapid.SampledFrom(ids).Draw(t, "reject")
				if _, err := env.regs.Reject(ctx, editor, id, "rule check"); err != nil && !errors.Is(err, ErrInvalidState) {
					t.Fatalf("reject: %v", err)
				}
			default:
				id := rapid.SampledFrom(ids).Draw(t, "withdraw")
				if _, err := env.regs.Withdraw(ctx, admin, id); err != nil && !errors.Is(err, ErrInvalidState) {
					t.Fatalf("withdraw: %v", err)
				}
			}

			regs, err := env.regs.List(ctx, admin, ListRegistrationsFilter{Limit: maxListLimit})
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			held := make(map[[2]int]int)
			for _, r := range regs {
				if r.Status.HoldsSlot() {
					key := [2]int{r.RegionID, r.TournamentCategoryID}
					held[key]++
					if held[key] > 1 {
						t.Fatalf("region %d holds %d active registrations in category %d", r.RegionID, held[key], r.TournamentCategoryID)
					}
				}
			}
		}
	})
}
