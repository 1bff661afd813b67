// Package analytics summarizes registration and attendance per event.
package analytics

import (
	"context"
	"sort"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/ledger"
)

// EventStats is the attendance picture of one event.
type EventStats struct {
	Event             string  `json:"event"`
	Name              string  `json:"name"`
	Capacity          uint32  `json:"capacity"`
	Registered        uint32  `json:"registered"`
	Attended          int     `json:"attended"`
	CredentialsMinted int     `json:"credentials_minted"`
	FillRate          float64 `json:"fill_rate"`
	ClaimRate         float64 `json:"claim_rate"`
}

// OrganizerSummary aggregates every event one creator runs.
type OrganizerSummary struct {
	Creator          string       `json:"creator"`
	Events           []EventStats `json:"events"`
	TotalCapacity    uint64       `json:"total_capacity"`
	TotalRegistered  uint64       `json:"total_registered"`
	TotalCredentials int          `json:"total_credentials"`
	OverallClaimRate float64      `json:"overall_claim_rate"`
}

type Service struct {
	program *attendance.Program
	reader  attendance.Reader
}

func NewService(program *attendance.Program, reader attendance.Reader) *Service {
	return &Service{program: program, reader: reader}
}

// EventStats reads the event and its registrations.
func (s *Service) EventStats(ctx context.Context, addr ledger.Address) (*EventStats, error) {
	event, err := s.program.GetEvent(ctx, s.reader, addr)
	if err != nil {
		return nil, err
	}
	return s.statsFor(ctx, addr, event)
}

func (s *Service) statsFor(ctx context.Context, addr ledger.Address, event *attendance.Event) (*EventStats, error) {
	regs, err := s.program.ListRegistrations(ctx, s.reader, addr)
	if err != nil {
		return nil, err
	}

	stats := &EventStats{
		Event:      addr.String(),
		Name:       event.Name,
		Capacity:   event.TotalAttendees,
		Registered: event.RegisteredAttendees,
	}
	for _, r := range regs {
		if r.Registration.Attended {
			stats.Attended++
		}
		if r.Registration.CredentialMinted {
			stats.CredentialsMinted++
		}
	}
	stats.FillRate = ratio(float64(stats.Registered), float64(stats.Capacity))
	stats.ClaimRate = ratio(float64(stats.CredentialsMinted), float64(stats.Registered))
	return stats, nil
}

// OrganizerSummary covers every event created by creator, busiest first.
func (s *Service) OrganizerSummary(ctx context.Context, creator ledger.Address) (*OrganizerSummary, error) {
	entries, err := s.program.ListEvents(ctx, s.reader)
	if err != nil {
		return nil, err
	}

	summary := &OrganizerSummary{Creator: creator.String(), Events: []EventStats{}}
	for i := range entries {
		if entries[i].Event.Creator != creator {
			continue
		}
		stats, err := s.statsFor(ctx, entries[i].Address, &entries[i].Event)
		if err != nil {
			return nil, err
		}
		summary.Events = append(summary.Events, *stats)
		summary.TotalCapacity += uint64(stats.Capacity)
		summary.TotalRegistered += uint64(stats.Registered)
		summary.TotalCredentials += stats.CredentialsMinted
	}

	sort.SliceStable(summary.Events, func(i, j int) bool {
		return summary.Events[i].Registered > summary.Events[j].Registered
	})
	summary.OverallClaimRate = ratio(float64(summary.TotalCredentials), float64(summary.TotalRegistered))
	return summary, nil
}

func ratio(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}
