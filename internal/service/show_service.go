package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/thebandproject/bandsite/internal/logging"
	"github.com/thebandproject/bandsite/internal/metrics"
	"github.com/thebandproject/bandsite/internal/model"
	"github.com/thebandproject/bandsite/internal/repository"
)

// ShowFilter narrows a listing.  Zero value means everything.
type ShowFilter struct {
	// State matches Show.State case-insensitively.
	State string
}

// Listing is a sorted set of upcoming shows.
type Listing struct {
	Shows []model.Show
	// Fallback is set when the shows came from the bundled dataset.
	Fallback bool
}

// ShowService serves the upcoming-shows listing.
type ShowService struct {
	store    repository.ShowStore
	fallback []model.Show
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
}

// NewShowService returns a service reading from store (nil: always use the
// fallback).  Only fallback shows flagged isUpcoming are ever listed.
func NewShowService(store repository.ShowStore, fallback []model.Show, log logrus.FieldLogger, m *metrics.Metrics) *ShowService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ShowService{
		store:    store,
		fallback: repository.UpcomingOnly(fallback),
		log:      log,
		metrics:  m,
	}
}

// Upcoming lists upcoming shows sorted by date.  The store is asked first;
// when it fails or has nothing, the bundled dataset is used instead.  The
// listing never fails.
func (s *ShowService) Upcoming(ctx context.Context, f ShowFilter) Listing {
	l := s.all(ctx)
	if want := strings.TrimSpace(f.State); want != "" {
		l.Shows = lo.Filter(l.Shows, func(sh model.Show, _ int) bool {
			return strings.EqualFold(strings.TrimSpace(sh.State), want)
		})
	}
	return l
}

func (s *ShowService) all(ctx context.Context) Listing {
	log := logging.FromContext(ctx, s.log)
	if s.store != nil {
		shows, err := s.store.ListUpcoming(ctx)
		switch {
		case err != nil:
			log.WithError(err).Warn("shows: store query failed, using bundled dataset")
		case len(shows) == 0:
			log.Debug("shows: store is empty, using bundled dataset")
		default:
			return Listing{Shows: SortShows(shows)}
		}
	}
	s.metrics.ListingFallback()
	return Listing{Shows: SortShows(slices.Clone(s.fallback)), Fallback: true}
}

// States returns the distinct states of upcoming shows, upper-cased and
// sorted.
func (s *ShowService) States(ctx context.Context) []string {
	states := lo.Map(s.all(ctx).Shows, func(sh model.Show, _ int) string {
		return strings.ToUpper(strings.TrimSpace(sh.State))
	})
	out := lo.Uniq(lo.Without(states, ""))
	sort.Strings(out)
	return out
}

// Get finds one show by id in the same data the listing serves: the store
// while it is healthy and non-empty, the bundled dataset otherwise.
// Returns repository.ErrShowNotFound when the show is not there.
func (s *ShowService) Get(ctx context.Context, id string) (model.Show, error) {
	if s.store != nil {
		sh, err := s.store.GetByID(ctx, id)
		switch {
		case err == nil:
			return *sh, nil
		case errors.Is(err, repository.ErrShowNotFound):
			if s.storeServesListing(ctx) {
				return model.Show{}, repository.ErrShowNotFound
			}
		default:
			logging.FromContext(ctx, s.log).WithError(err).Warn("shows: store lookup failed")
		}
	}
	sh, ok := lo.Find(s.fallback, func(sh model.Show) bool { return sh.ID == id })
	if !ok {
		return model.Show{}, repository.ErrShowNotFound
	}
	return sh, nil
}

// storeServesListing reports whether the listing currently comes from the
// store rather than the bundled dataset.
func (s *ShowService) storeServesListing(ctx context.Context) bool {
	shows, err := s.store.ListUpcoming(ctx)
	return err == nil && len(shows) > 0
}

// SortShows sorts shows in place by date, ascending, and returns them.  The
// sort is stable; shows whose date does not parse go last in their
// original relative order.
func SortShows(shows []model.Show) []model.Show {
	type keyed struct {
		show model.Show
		day  time.Time
		ok   bool
	}
	ks := make([]keyed, len(shows))
	for i, sh := range shows {
		day, err := sh.Day()
		ks[i] = keyed{show: sh, day: day, ok: err == nil}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case !a.ok && !b.ok:
			return 0
		case !a.ok:
			return 1
		case !b.ok:
			return -1
		default:
			return a.day.Compare(b.day)
		}
	})
	for i, k := range ks {
		shows[i] = k.show
	}
	return shows
}
