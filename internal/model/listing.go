package model

import "time"

// Listing represents an offer created by a host: a ticket to hand
// over, a companion seat to fill, or an exchange proposal.  It owns
// the open → matched → closed lifecycle and the slot accounting for
// accepted applicants.
//
// Fields:
//  ID                  – primary key identifier.
//  HostID              – user who created the listing.
//  EventName           – name of the event the tickets belong to.
//  EventDate           – date of the event; an open listing with a past
//                        date is reported as expired (computed, not stored).
//  Venue               – where the event takes place.
//  MeetingTime         – agreed meeting time before the event (nullable).
//  MeetingLocation     – agreed meeting spot (nullable).
//  TicketType          – find_companion, sub_ticket_transfer or ticket_exchange.
//  TicketSource        – where the host obtained the tickets.
//  SeatGrade           – free-text seat grade/section.
//  TicketCountType     – solo or duo.
//  TotalSlots          – number of guest slots the listing offers.
//  AvailableSlots      – remaining slots; never exceeds TotalSlots.
//  Status              – open, matched or closed.
//  ExchangeTargetEvent – wanted event for ticket_exchange listings (nullable).
//  ExchangeTargetGrade – wanted seat grade for ticket_exchange listings (nullable).
//  Description         – free-text description.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Listing struct {
    ID                  uint64     // listings.id
    HostID              uint64     // listings.host_id
    EventName           string     // listings.event_name
    EventDate           time.Time  // listings.event_date
    Venue               string     // listings.venue
    MeetingTime         *string    // listings.meeting_time (nullable)
    MeetingLocation     *string    // listings.meeting_location (nullable)
    TicketType          string     // listings.ticket_type
    TicketSource        string     // listings.ticket_source
    SeatGrade           string     // listings.seat_grade
    TicketCountType     string     // listings.ticket_count_type
    TotalSlots          uint32     // listings.total_slots
    AvailableSlots      uint32     // listings.available_slots
    Status              string     // listings.status
    ExchangeTargetEvent *string    // listings.exchange_target_event (nullable)
    ExchangeTargetGrade *string    // listings.exchange_target_grade (nullable)
    Description         string     // listings.description
    CreatedAt           time.Time  // listings.created_at
    UpdatedAt           time.Time  // listings.updated_at
}

// Expired reports whether an open listing's event date has already
// passed.  The flag is derived at read time and never written back.
func (l *Listing) Expired(now time.Time) bool {
    return l.Status == "open" && l.EventDate.Before(now)
}
