package model

// SeatPosition 座位位置，僅供顯示
type SeatPosition string

const (
	SeatPositionLeft  SeatPosition = "left"
	SeatPositionRight SeatPosition = "right"
	SeatPositionAisle SeatPosition = "aisle"
)

// SeatsPerRow 每排 4 個座位：左 2、走道、右 2
const SeatsPerRow = 4

// Seat 座位；Available 只代表抓取當下的後端狀態
type Seat struct {
	ID        int          `json:"id"`
	Label     string       `json:"nomor_kursi"`
	Position  SeatPosition `json:"posisi"`
	Index     int          `json:"index"`
	Available bool         `json:"tersedia"`
}

// SeatMap 某班次某艙等的座位表快照
type SeatMap struct {
	ScheduleID      int     `json:"jadwal_id"`
	ClassOfferingID int     `json:"jadwal_kelas_bus_id"`
	Price           float64 `json:"harga"`
	Seats           []Seat  `json:"kursi"`
}

// SeatRow 一排座位，Left/Right 之間為走道
type SeatRow struct {
	Left  []Seat
	Right []Seat
}

// IsEmpty 後端沒有配置任何座位
func (m *SeatMap) IsEmpty() bool {
	return m == nil || len(m.Seats) == 0
}

// Find 依 id 找座位
func (m *SeatMap) Find(seatID int) (Seat, bool) {
	if m == nil {
		return Seat{}, false
	}
	for _, s := range m.Seats {
		if s.ID == seatID {
			return s, true
		}
	}
	return Seat{}, false
}

// AvailableCount 可選座位數
func (m *SeatMap) AvailableCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, s := range m.Seats {
		if s.Available {
			n++
		}
	}
	return n
}

// Rows 依順序每 4 個切成一排，最後一排可能不足 4 個
func (m *SeatMap) Rows() []SeatRow {
	if m.IsEmpty() {
		return []SeatRow{}
	}

	rows := make([]SeatRow, 0, (len(m.Seats)+SeatsPerRow-1)/SeatsPerRow)
	for i := 0; i < len(m.Seats); i += SeatsPerRow {
		end := i + SeatsPerRow
		if end > len(m.Seats) {
			end = len(m.Seats)
		}
		chunk := m.Seats[i:end]

		half := SeatsPerRow / 2
		if len(chunk) < half {
			half = len(chunk)
		}
		rows = append(rows, SeatRow{
			Left:  append([]Seat(nil), chunk[:half]...),
			Right: append([]Seat(nil), chunk[half:]...),
		})
	}
	return rows
}

// PositionForIndex 依排內位置推算左右：每排前 2 個在左、後 2 個在右
func PositionForIndex(index int) SeatPosition {
	if index%SeatsPerRow < SeatsPerRow/2 {
		return SeatPositionLeft
	}
	return SeatPositionRight
}
