package memory

import (
	"go.uber.org/zap"
	"users_api/internal/model"
)

func (s *Store) ListAll() []model.User {
	out := make([]model.User, len(s.records))
	for i, record := range s.records {
		out[i] = record.Clone()
	}
	return out
}

func (s *Store) FindIndexByID(id string) (int, bool) {
	for i, record := range s.records {
		if record.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) Insert(user model.User) {
	s.records = append(s.records, user.Clone())
	s.log.Debug("user inserted", zap.String("id", user.ID), zap.Int("size", len(s.records)))
}

func (s *Store) ReplaceAt(index int, user model.User) {
	s.records[index] = user.Clone()
}

func (s *Store) RemoveAt(index int) {
	id := s.records[index].ID
	copy(s.records[index:], s.records[index+1:])
	s.records[len(s.records)-1] = model.User{}
	s.records = s.records[:len(s.records)-1]
	s.log.Debug("user removed", zap.String("id", id), zap.Int("size", len(s.records)))
}

func (s *Store) Len() int {
	return len(s.records)
}
