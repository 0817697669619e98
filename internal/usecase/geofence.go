package usecase

import (
	"context"
	"math"
	"sort"

	"go.opentelemetry.io/otel"

	"github.com/mailfold/mailroom/internal/domain"
)

var tracer = otel.Tracer("usecase")

// DefaultRadiusMiles applies when a detect request omits the radius.
const DefaultRadiusMiles = 10.0

const earthRadiusMiles = 3958.8

type GeofenceUsecase struct {
	sites SiteRepository
}

func NewGeofenceUsecase(sites SiteRepository) *GeofenceUsecase {
	return &GeofenceUsecase{sites: sites}
}

// Detect ranks the tenant's active sites by great-circle distance from the
// query point and returns those within radius, nearest first, plus the
// closest. All distances are statute miles. Sites without coordinates are
// invisible here; a tenant with none of those at all reports
// NoSitesConfigured so the caller can fall back to manual site selection.
func (uc *GeofenceUsecase) Detect(ctx context.Context, tenantID string, latitude, longitude, radius float64) ([]domain.SiteCandidate, *domain.SiteCandidate, error) {
	ctx, span := tracer.Start(ctx, "Geofence.Usecase.Detect")
	defer span.End()

	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, nil, domain.ErrInvalidCoordinates
	}
	if radius <= 0 {
		radius = DefaultRadiusMiles
	}

	sites, err := uc.sites.ListActive(ctx, tenantID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	located := 0
	candidates := []domain.SiteCandidate{}
	for _, site := range sites {
		if site.Latitude == nil || site.Longitude == nil {
			continue
		}
		located++
		distance := haversineMiles(latitude, longitude, *site.Latitude, *site.Longitude)
		if distance <= radius {
			candidates = append(candidates, domain.SiteCandidate{
				Site:          site,
				DistanceMiles: distance,
			})
		}
	}

	if located == 0 {
		return nil, nil, domain.ErrNoSitesConfigured
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DistanceMiles < candidates[j].DistanceMiles
	})

	var closest *domain.SiteCandidate
	if len(candidates) > 0 {
		closest = &candidates[0]
	}

	return candidates, closest, nil
}

func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(a))
}
