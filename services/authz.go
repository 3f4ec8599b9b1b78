package services

import "github.com/Dosada05/federation-registry/models"

// Предикаты авторизации. Каждая операция сервиса проверяет ровно один из них.

// canSubmitFor: admin/editor may act for any region, a representative only for its own.
func canSubmitFor(actor models.Actor, regionID int) bool {
	if actor.Role.IsReviewer() {
		return true
	}
	return actor.Role == models.RoleRegionalRepresentative && actor.InRegion(regionID)
}

func canReview(actor models.Actor) bool {
	return actor.Role.IsReviewer()
}

// canModify covers roster edits and withdrawal.
func canModify(actor models.Actor, reg *models.Registration) bool {
	return actor.Role.IsReviewer() || reg.SubmittedBy == actor.UserID
}

// canView covers reads of a registration, its history and its export.
func canView(actor models.Actor, reg *models.Registration) bool {
	if actor.Role.IsReviewer() || reg.SubmittedBy == actor.UserID {
		return true
	}
	return actor.Role == models.RoleRegionalRepresentative && actor.InRegion(reg.RegionID)
}
