package bot

import (
	"sync"
	"time"
)

// Состояния черновика репорта. Единственное cross-request состояние
// вне базы — UI-черновик диалога, живёт только в памяти процесса.
type draftState int

const (
	draftRegion  draftState = iota // ждём выбор региона
	draftZone                      // ждём выбор зоны
	draftNote                      // ждём текст описания или skip
	draftConfirm                   // ждём подтверждение
)

// draftTTL — брошенный черновик молча забывается.
const draftTTL = 10 * time.Minute

type draft struct {
	state       draftState
	zone        string
	description string
	lat         *float64
	lng         *float64
	startedAt   time.Time
}

// drafts — реестр черновиков по пользователю.
type drafts struct {
	mu sync.Mutex
	m  map[int64]*draft
}

func newDrafts() *drafts {
	return &drafts{m: make(map[int64]*draft)}
}

// begin открывает новый черновик, затирая предыдущий.
func (d *drafts) begin(userID int64, now time.Time) *draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	dr := &draft{state: draftRegion, startedAt: now}
	d.m[userID] = dr
	return dr
}

// get возвращает живой черновик; протухшие удаляются на месте.
func (d *drafts) get(userID int64, now time.Time) (*draft, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dr, ok := d.m[userID]
	if !ok {
		return nil, false
	}
	if now.Sub(dr.startedAt) > draftTTL {
		delete(d.m, userID)
		return nil, false
	}
	return dr, true
}

// update применяет мутацию к живому черновику под замком реестра.
func (d *drafts) update(userID int64, now time.Time, fn func(*draft)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	dr, ok := d.m[userID]
	if !ok || now.Sub(dr.startedAt) > draftTTL {
		delete(d.m, userID)
		return false
	}
	fn(dr)
	return true
}

func (d *drafts) drop(userID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.m, userID)
}
