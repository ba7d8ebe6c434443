// Package memory — in-memory реализация db.Store для тестов сервисов.
// Семантика повторяет SQL-реализации (вплоть до порядка сортировки и
// кодов ошибок), состояние защищено одним мьютексом.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"parkwatch.sg/telegram-bot/internal/common"
	"parkwatch.sg/telegram-bot/internal/db"
)

type Store struct {
	mu sync.Mutex

	users         map[int64]*db.User
	subscriptions map[int64]map[string]bool
	sightings     map[string]*db.Sighting
	votes         map[string]map[int64]db.Vote
	bans          map[int64]*db.Ban
	actions       []*db.AdminAction
	nextActionID  int64
}

func New() *Store {
	return &Store{
		users:         make(map[int64]*db.User),
		subscriptions: make(map[int64]map[string]bool),
		sightings:     make(map[string]*db.Sighting),
		votes:         make(map[string]map[int64]db.Vote),
		bans:          make(map[int64]*db.Ban),
	}
}

func (s *Store) Close() {}

// --- Пользователи ---

func (s *Store) EnsureUser(_ context.Context, userID int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Username = username
		return nil
	}
	s.users[userID] = &db.User{ID: userID, Username: username, CreatedAt: time.Now().UTC()}
	return nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) IncrementReportCount(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, common.ErrUserNotFound
	}
	u.ReportCount++
	return u.ReportCount, nil
}

// --- Подписки ---

func (s *Store) Subscriptions(_ context.Context, userID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zones []string
	for z := range s.subscriptions[userID] {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones, nil
}

func (s *Store) AddSubscription(_ context.Context, userID int64, zone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscriptions[userID] == nil {
		s.subscriptions[userID] = make(map[string]bool)
	}
	s.subscriptions[userID][zone] = true
	return nil
}

func (s *Store) RemoveSubscription(_ context.Context, userID int64, zone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions[userID], zone)
	return nil
}

func (s *Store) ClearSubscriptions(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, userID)
	return nil
}

func (s *Store) ZoneSubscribers(_ context.Context, zone string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, zones := range s.subscriptions {
		if zones[zone] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// --- Сайтинги ---

func (s *Store) AddSighting(_ context.Context, sg *db.Sighting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sg
	s.sightings[sg.ID] = &cp
	return nil
}

func (s *Store) GetSighting(_ context.Context, id string) (*db.Sighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.sightings[id]
	if !ok {
		return nil, common.ErrSightingNotFound
	}
	cp := *sg
	return &cp, nil
}

func newestFirst(list []*db.Sighting) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].ReportedAt.After(list[j].ReportedAt)
	})
}

func (s *Store) SightingsInZoneSince(_ context.Context, zone string, cutoff time.Time) ([]*db.Sighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*db.Sighting
	for _, sg := range s.sightings {
		if sg.Zone == zone && sg.ReportedAt.After(cutoff) {
			cp := *sg
			out = append(out, &cp)
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *Store) SightingsInZonesSince(_ context.Context, zones []string, cutoff time.Time) ([]*db.Sighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]bool, len(zones))
	for _, z := range zones {
		wanted[z] = true
	}
	var out []*db.Sighting
	for _, sg := range s.sightings {
		if wanted[sg.Zone] && sg.ReportedAt.After(cutoff) {
			cp := *sg
			out = append(out, &cp)
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *Store) CountReportsSince(_ context.Context, reporterID int64, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, sg := range s.sightings {
		if sg.ReporterID == reporterID && sg.ReportedAt.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *Store) OldestReportSince(_ context.Context, reporterID int64, cutoff time.Time) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest *time.Time
	for _, sg := range s.sightings {
		if sg.ReporterID != reporterID || !sg.ReportedAt.After(cutoff) {
			continue
		}
		if oldest == nil || sg.ReportedAt.Before(*oldest) {
			t := sg.ReportedAt
			oldest = &t
		}
	}
	return oldest, nil
}

func (s *Store) RecentSightingsByReporter(_ context.Context, reporterID int64, limit int) ([]*db.Sighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*db.Sighting
	for _, sg := range s.sightings {
		if sg.ReporterID == reporterID {
			cp := *sg
			out = append(out, &cp)
		}
	}
	newestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteSighting(_ context.Context, id string) (*db.Sighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.sightings[id]
	if !ok {
		return nil, common.ErrSightingNotFound
	}
	delete(s.sightings, id)
	delete(s.votes, id)
	return sg, nil
}

func (s *Store) DeleteSightingsBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, sg := range s.sightings {
		if sg.ReportedAt.Before(cutoff) {
			delete(s.sightings, id)
			delete(s.votes, id)
			count++
		}
	}
	return count, nil
}

func (s *Store) FlaggedSightings(_ context.Context, limit int) ([]*db.Sighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*db.Sighting
	for _, sg := range s.sightings {
		if sg.Flagged {
			cp := *sg
			out = append(out, &cp)
		}
	}
	newestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Фидбек ---

func (s *Store) ApplyFeedback(_ context.Context, sightingID string, voterID int64, vote db.Vote) (*db.Sighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok := s.sightings[sightingID]
	if !ok {
		return nil, common.ErrSightingNotFound
	}

	previous, voted := s.votes[sightingID][voterID]
	if voted && previous == vote {
		return nil, common.ErrDuplicateVote
	}

	if voted {
		if previous == db.VotePositive {
			sg.FeedbackPositive--
		} else {
			sg.FeedbackNegative--
		}
	}
	if vote == db.VotePositive {
		sg.FeedbackPositive++
	} else {
		sg.FeedbackNegative++
	}

	if s.votes[sightingID] == nil {
		s.votes[sightingID] = make(map[int64]db.Vote)
	}
	s.votes[sightingID][voterID] = vote

	cp := *sg
	return &cp, nil
}

func (s *Store) FeedbackTotals(_ context.Context, reporterID int64) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, neg := 0, 0
	for _, sg := range s.sightings {
		if sg.ReporterID == reporterID {
			pos += sg.FeedbackPositive
			neg += sg.FeedbackNegative
		}
	}
	return pos, neg, nil
}

func (s *Store) FlagSighting(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sg, ok := s.sightings[id]; ok {
		sg.Flagged = true
	}
	return nil
}

// --- Модерация ---

func (s *Store) BanUser(_ context.Context, userID, bannedBy int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bans[userID]; ok {
		b.BannedBy = bannedBy
		b.Reason = reason
	} else {
		s.bans[userID] = &db.Ban{UserID: userID, BannedBy: bannedBy, Reason: reason, BannedAt: time.Now().UTC()}
	}
	delete(s.subscriptions, userID)
	return nil
}

func (s *Store) UnbanUser(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bans[userID]; !ok {
		return false, nil
	}
	delete(s.bans, userID)
	return true, nil
}

func (s *Store) IsBanned(_ context.Context, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.bans[userID]
	return ok, nil
}

func (s *Store) BannedUsers(_ context.Context) ([]*db.Ban, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*db.Ban
	for _, b := range s.bans {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BannedAt.After(out[j].BannedAt) })
	return out, nil
}

func (s *Store) IncrementWarnings(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, common.ErrUserNotFound
	}
	u.Warnings++
	return u.Warnings, nil
}

func (s *Store) ResetWarnings(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Warnings = 0
	}
	return nil
}

// --- Журнал админ-действий ---

func (s *Store) LogAdminAction(_ context.Context, adminID int64, action, target, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextActionID++
	s.actions = append(s.actions, &db.AdminAction{
		ID: s.nextActionID, AdminID: adminID, Action: action,
		Target: target, Detail: detail, CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *Store) AdminLog(_ context.Context, limit int) ([]*db.AdminAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*db.AdminAction
	for i := len(s.actions) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.actions[i]
		out = append(out, &cp)
	}
	return out, nil
}

// --- Статистика ---

func (s *Store) GlobalStats(_ context.Context, now time.Time) (*db.GlobalStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &db.GlobalStats{TotalUsers: len(s.users)}
	cutoff := now.Add(-24 * time.Hour)
	for _, sg := range s.sightings {
		st.TotalSightings++
		if sg.ReportedAt.After(cutoff) {
			st.Sightings24h++
		}
		st.FeedbackPositive += sg.FeedbackPositive
		st.FeedbackNegative += sg.FeedbackNegative
	}
	for _, zones := range s.subscriptions {
		if len(zones) > 0 {
			st.UniqueSubscribers++
			st.ActiveSubscriptions += len(zones)
		}
	}
	return st, nil
}

func (s *Store) ZoneStats(_ context.Context, zone string, now time.Time) (*db.ZoneStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &db.ZoneStats{}
	day := now.Add(-24 * time.Hour)
	week := now.Add(-7 * 24 * time.Hour)
	for _, sg := range s.sightings {
		if sg.Zone != zone {
			continue
		}
		st.SightingsAll++
		if sg.ReportedAt.After(day) {
			st.Sightings24h++
		}
		if sg.ReportedAt.After(week) {
			st.Sightings7d++
		}
	}
	for _, zones := range s.subscriptions {
		if zones[zone] {
			st.Subscribers++
		}
	}
	return st, nil
}
