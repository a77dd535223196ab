package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/serejivanov62/wish/internal/metrics"
	"github.com/serejivanov62/wish/internal/repository"
	"github.com/serejivanov62/wish/internal/scraper"
	"github.com/sirupsen/logrus"
)

// DefaultScrapeTimeout bounds a single extractor call when none is configured
const DefaultScrapeTimeout = 30 * time.Second

// Repositories bundles the storage the service works against
type Repositories struct {
	Users      repository.UserRepository
	Categories repository.CategoryRepository
	Items      repository.ItemRepository
	Events     repository.EventRepository
	Friends    repository.FriendRepository
	Bookings   repository.BookingRepository
}

// Options carries the optional collaborators of the service
type Options struct {
	Extractor     scraper.Extractor
	ScrapeTimeout time.Duration
	Metrics       *metrics.Metrics
}

// Service is the central business logic layer that holds all repositories
// and provides high-level methods for the application.
type Service struct {
	logger   *logrus.Logger
	validate *validator.Validate
	metrics  *metrics.Metrics

	extractor     scraper.Extractor
	scrapeTimeout time.Duration

	Users      repository.UserRepository
	Categories repository.CategoryRepository
	Items      repository.ItemRepository
	Events     repository.EventRepository
	Friends    repository.FriendRepository
	Bookings   repository.BookingRepository
}

var phonePattern = regexp.MustCompile(`^\+\d{10,15}$`)

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger, repos Repositories, opts Options) *Service {
	if opts.ScrapeTimeout <= 0 {
		opts.ScrapeTimeout = DefaultScrapeTimeout
	}

	return &Service{
		logger:        logger,
		validate:      NewValidator(),
		metrics:       opts.Metrics,
		extractor:     opts.Extractor,
		scrapeTimeout: opts.ScrapeTimeout,
		Users:         repos.Users,
		Categories:    repos.Categories,
		Items:         repos.Items,
		Events:        repos.Events,
		Friends:       repos.Friends,
		Bookings:      repos.Bookings,
	}
}

// NewValidator returns a validator with the "phone" tag registered. The API
// layer shares it for request bodies.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// check runs struct validation and maps failures onto ErrInvalid
func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return invalid(err)
	}
	return nil
}

func (s *Service) checkVar(field string, v any, tag string) error {
	if err := s.validate.Var(v, tag); err != nil {
		return fmt.Errorf("%w: %s is invalid", ErrInvalid, field)
	}
	return nil
}

func invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
}

// NormalizePhone strips formatting from a phone number and returns it in
// +<digits> form. It does not validate length.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 1 {
		return ""
	}
	return b.String()
}
