package memory

import (
	"context"
	"sort"

	"github.com/Dosada05/federation-registry/models"
	"github.com/Dosada05/federation-registry/repositories"
)

func (s *Store) Append(ctx context.Context, exec repositories.SQLExecutor, entry *models.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.registrations[entry.RegistrationID]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	cp := *entry
	s.st.audit = append(s.st.audit, &cp)
	return nil
}

func (s *Store) ListByRegistration(ctx context.Context, exec repositories.SQLExecutor, registrationID int) ([]*models.AuditLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AuditLogEntry, 0)
	for _, e := range s.st.audit {
		if e.RegistrationID == registrationID {
			cp := *e
			out = append(out, &cp)
		}
	}
	// Append order breaks ties between equal timestamps.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
