package flights

import (
	"context"
	"errors"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/mydummyticket/mdt-backend/internal/amadeus"
	"github.com/mydummyticket/mdt-backend/internal/domain"
	"github.com/mydummyticket/mdt-backend/internal/repository"
)

var (
	ErrMissingCriteria = errors.New("please provide departure, arrival, and departure date")
	ErrAirlineExists   = errors.New("this airline data already exists")
	ErrAirlineNotFound = errors.New("no airline found")
	ErrNoFlights       = errors.New("no flights available")
)

type FlightUseCase interface {
	Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FlightOffer, error)
	AddAirline(ctx context.Context, iataCode string) (*domain.Airline, error)
}

type Provider interface {
	SearchFlights(ctx context.Context, p amadeus.SearchParams) ([]domain.FlightOffer, error)
	Airlines(ctx context.Context, iataCodes []string) ([]domain.Airline, error)
}

type OffersCache interface {
	GetOffers(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FlightOffer, error)
	SetOffers(ctx context.Context, criteria domain.SearchCriteria, offers []domain.FlightOffer) error
}

type FlightService struct {
	provider Provider
	airlines repository.AirlineRepository
	cache    OffersCache
}

func NewFlightService(provider Provider, airlines repository.AirlineRepository, cache OffersCache) *FlightService {
	return &FlightService{provider: provider, airlines: airlines, cache: cache}
}

func (s *FlightService) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FlightOffer, error) {
	if criteria.From == "" || criteria.To == "" || criteria.DepartureDate == "" {
		return nil, ErrMissingCriteria
	}

	if s.cache != nil {
		cached, err := s.cache.GetOffers(ctx, criteria)
		if err != nil {
			log.Printf("offers cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	params := amadeus.SearchParams{
		Origin:        ExtractIataCode(criteria.From),
		Destination:   ExtractIataCode(criteria.To),
		DepartureDate: criteria.DepartureDate,
		Adults:        1,
	}
	if criteria.Type == domain.TripTypeReturn && criteria.ReturnDate != "" {
		params.ReturnDate = criteria.ReturnDate
	}

	offers, err := s.provider.SearchFlights(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, ErrNoFlights
	}

	// Offers with long connection chains are not useful for a reservation
	// document; keep direct and one-stop itineraries only.
	filtered := offers[:0]
	for _, o := range offers {
		if len(o.Itineraries) > 0 && len(o.Itineraries[0].Segments) <= 2 {
			filtered = append(filtered, o)
		}
	}

	enriched, err := s.enrichWithAirlines(ctx, filtered)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(enriched, func(i, j int) bool {
		return len(enriched[i].Itineraries[0].Segments) < len(enriched[j].Itineraries[0].Segments)
	})

	if s.cache != nil {
		if err := s.cache.SetOffers(ctx, criteria, enriched); err != nil {
			log.Printf("offers cache write failed: %v", err)
		}
	}
	return enriched, nil
}

func (s *FlightService) AddAirline(ctx context.Context, iataCode string) (*domain.Airline, error) {
	existing, err := s.airlines.GetByCodes(ctx, []string{iataCode})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrAirlineExists
	}

	fetched, err := s.provider.Airlines(ctx, []string{iataCode})
	if err != nil {
		return nil, err
	}
	if len(fetched) == 0 || fetched[0].IcaoCode == "" || fetched[0].BusinessName == "UNDEFINED" {
		return nil, ErrAirlineNotFound
	}

	airline := fetched[0]
	if err := s.airlines.Upsert(ctx, []domain.Airline{airline}); err != nil {
		return nil, err
	}
	return &airline, nil
}

// enrichWithAirlines attaches cached airline metadata to every segment,
// fetching codes missing from the local table from the provider and storing
// them for the next search.
func (s *FlightService) enrichWithAirlines(ctx context.Context, offers []domain.FlightOffer) ([]domain.FlightOffer, error) {
	codeSet := map[string]struct{}{}
	for _, o := range offers {
		for _, code := range o.ValidatingAirlineCodes {
			codeSet[code] = struct{}{}
		}
		for _, it := range o.Itineraries {
			for _, seg := range it.Segments {
				if seg.CarrierCode != "" {
					codeSet[seg.CarrierCode] = struct{}{}
				}
			}
		}
	}
	codes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}

	known, err := s.airlines.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]domain.Airline, len(known))
	for _, a := range known {
		byCode[a.IataCode] = a
	}

	var missing []string
	for _, code := range codes {
		if _, ok := byCode[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		fetched, err := s.provider.Airlines(ctx, missing)
		if err != nil {
			return nil, err
		}
		if len(fetched) > 0 {
			if err := s.airlines.Upsert(ctx, fetched); err != nil {
				return nil, err
			}
			for _, a := range fetched {
				byCode[a.IataCode] = a
			}
		}
	}

	for oi := range offers {
		o := &offers[oi]
		for ii := range o.Itineraries {
			for si := range o.Itineraries[ii].Segments {
				seg := &o.Itineraries[ii].Segments[si]
				if a, ok := byCode[seg.CarrierCode]; ok {
					detail := a
					seg.AirlineDetail = &detail
				}
			}
		}
		o.AirlineDetails = o.AirlineDetails[:0]
		for _, code := range o.ValidatingAirlineCodes {
			if a, ok := byCode[code]; ok {
				o.AirlineDetails = append(o.AirlineDetails, a)
			}
		}
	}
	return offers, nil
}

var iataCodePattern = regexp.MustCompile(`\(([A-Z]{3})\)`)

// ExtractIataCode pulls the airport code out of a "City (XXX)" display
// string; a bare code passes through unchanged.
func ExtractIataCode(location string) string {
	if m := iataCodePattern.FindStringSubmatch(location); m != nil {
		return m[1]
	}
	return strings.ToUpper(strings.TrimSpace(location))
}

var _ FlightUseCase = (*FlightService)(nil)
