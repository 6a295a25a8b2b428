package model

import "time"

// TicketStatus 車票狀態類型
type TicketStatus string

const (
	TicketStatusBooked    TicketStatus = "dipesan"    // 已訂位、待付款
	TicketStatusPaid      TicketStatus = "dibayar"    // 已付款
	TicketStatusCancelled TicketStatus = "dibatalkan" // 已取消
)

// IsValid 驗證狀態是否有效
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusBooked, TicketStatusPaid, TicketStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s TicketStatus) CanTransitionTo(target TicketStatus) bool {
	transitions := map[TicketStatus][]TicketStatus{
		TicketStatusBooked:    {TicketStatusPaid, TicketStatusCancelled},
		TicketStatusPaid:      {TicketStatusCancelled},
		TicketStatusCancelled: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// TicketSeat 車票上的座位資訊
type TicketSeat struct {
	Label    string       `json:"nomor"`
	Position SeatPosition `json:"posisi"`
}

// Ticket 車票模型；由後端建立，客戶端只持有不可變的副本
type Ticket struct {
	ID              int          `json:"id" db:"id"`
	Code            string       `json:"kode_tiket" db:"code"`
	UserID          int          `json:"-" db:"user_id"`
	ClassOfferingID int          `json:"jadwal_kelas_bus_id" db:"class_offering_id"`
	SeatID          int          `json:"kursi_id" db:"seat_id"`
	PassengerName   string       `json:"nama_penumpang" db:"passenger_name"`
	NationalID      string       `json:"nik" db:"national_id"`
	PhoneNumber     string       `json:"nomor_telepon" db:"phone_number"`
	Seat            TicketSeat   `json:"kursi" db:"-"`
	Price           float64      `json:"harga" db:"price"`
	Status          TicketStatus `json:"status" db:"status"`
	BookedAt        time.Time    `json:"waktu_pesan" db:"booked_at"`
	PaymentURL      string       `json:"payment_url,omitempty" db:"-"`
}

// AwaitingPayment 車票是否在等待付款
func (t *Ticket) AwaitingPayment() bool {
	return t != nil && t.Status == TicketStatusBooked
}
