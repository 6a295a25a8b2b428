package selection

import (
	"sync"

	"bus-ticket-booking/internal/model"
	apperrors "bus-ticket-booking/pkg/app_errors"
	"bus-ticket-booking/pkg/logger"

	"go.uber.org/zap"
)

// State 選位狀態：Empty 或 Selected，任何時刻最多一個座位
type State string

const (
	StateEmpty    State = "empty"
	StateSelected State = "selected"
)

// Machine 單選座位狀態機，只能參考目前座位表中的座位
type Machine struct {
	mu       sync.Mutex
	seats    map[int]model.Seat
	selected *model.Seat
}

func NewMachine() *Machine {
	return &Machine{seats: map[int]model.Seat{}}
}

// Bind 換上新的座位表並清除選取（重新抓取座位表時呼叫）
func (m *Machine) Bind(seatMap *model.SeatMap) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seats = make(map[int]model.Seat)
	if seatMap != nil {
		for _, s := range seatMap.Seats {
			m.seats[s.ID] = s
		}
	}
	m.selected = nil
}

// Select 切換選取：
// 不可選的座位拒絕且不改變狀態；再點同一個座位取消選取；點其他座位則取代原本的選取
func (m *Machine) Select(seatID int) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := logger.WithComponent("selection").With(zap.Int("seat_id", seatID))

	seat, ok := m.seats[seatID]
	if !ok {
		log.Warn("seat not in current seat map")
		return m.stateLocked(), apperrors.ErrSeatNotInMap
	}
	if !seat.Available {
		log.Debug("reject unavailable seat")
		return m.stateLocked(), apperrors.ErrSeatUnavailable
	}

	if m.selected != nil && m.selected.ID == seat.ID {
		m.selected = nil
		log.Debug("seat deselected")
		return StateEmpty, nil
	}

	m.selected = &seat
	log.Debug("seat selected", zap.String("label", seat.Label))
	return StateSelected, nil
}

// Clear 永遠回到 Empty
func (m *Machine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = nil
}

// Selected 目前選取的座位
func (m *Machine) Selected() (model.Seat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == nil {
		return model.Seat{}, false
	}
	return *m.selected, true
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Machine) stateLocked() State {
	if m.selected == nil {
		return StateEmpty
	}
	return StateSelected
}
