package engine

import (
	"go.uber.org/zap"

	"github.com/roach88/ifcpset/internal/cache"
	"github.com/roach88/ifcpset/internal/classification"
	"github.com/roach88/ifcpset/internal/emit"
	"github.com/roach88/ifcpset/internal/ifcguid"
	"github.com/roach88/ifcpset/internal/ir"
	"github.com/roach88/ifcpset/internal/measure"
	"github.com/roach88/ifcpset/internal/model"
	"github.com/roach88/ifcpset/internal/registry"
)

// GUIDGenerator assigns GlobalIds to emitted sets.
// Implemented by ifcguid.Generator (production) and
// testutil.SequentialGUIDs (tests).
type GUIDGenerator interface {
	SetGUID(target model.Element, slot ifcguid.Slot) string
}

// Session is one export pass over a registry.
//
// The session owns its cache: it is cleared when the session starts and
// when it closes. The registry is only read and may be shared by later
// sessions built for the same profile and version.
//
// A Session is not safe for concurrent use.
type Session struct {
	registry       *registry.Registry
	emitter        emit.Emitter
	cache          *cache.Cache
	scale          measure.ScaleContext
	locale         string
	classification classification.Classification
	owner          emit.OwnerContext
	guids          GUIDGenerator
	sessionIDs     SessionIDGenerator
	logger         *zap.Logger

	stats Stats
}

// Stats counts what a session has emitted.
type Stats struct {
	Entities   int         `json:"entities"`
	Sets       int         `json:"sets"`
	EmptySets  int         `json:"empty_sets"`
	Properties int         `json:"properties"`
	Cache      cache.Stats `json:"cache"`
}

// Option configures a Session.
type Option func(*Session)

// WithCache replaces the session cache. Use cache.New(cache.Disabled()) to
// export without deduplication.
func WithCache(c *cache.Cache) Option {
	return func(s *Session) {
		s.cache = c
	}
}

// WithScale sets the unit context. Default: measure.DefaultScale.
func WithScale(sc measure.ScaleContext) Option {
	return func(s *Session) {
		s.scale = sc
	}
}

// WithLocale selects localized source names, e.g. "fr".
func WithLocale(locale string) Option {
	return func(s *Session) {
		s.locale = locale
	}
}

// WithClassification qualifies classification references that name no
// system.
func WithClassification(c classification.Classification) Option {
	return func(s *Session) {
		s.classification = c
	}
}

// WithOwner sets the owner context attached to every set. The session id
// defaults to a fresh UUID.
func WithOwner(o emit.OwnerContext) Option {
	return func(s *Session) {
		s.owner = o
	}
}

// WithGUIDGenerator replaces the GlobalId source.
func WithGUIDGenerator(g GUIDGenerator) Option {
	return func(s *Session) {
		s.guids = g
	}
}

// WithSessionIDs replaces the source of the owner session id, used when
// WithOwner leaves Session empty. Default: UUIDv7SessionIDs.
func WithSessionIDs(g SessionIDGenerator) Option {
	return func(s *Session) {
		s.sessionIDs = g
	}
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession starts an export pass.
func NewSession(reg *registry.Registry, em emit.Emitter, opts ...Option) *Session {
	s := &Session{
		registry:   reg,
		emitter:    em,
		cache:      cache.New(),
		scale:      measure.DefaultScale,
		owner:      emit.OwnerContext{Application: ir.ApplicationName},
		guids:      ifcguid.Generator{},
		sessionIDs: UUIDv7SessionIDs{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.owner.Session == "" {
		s.owner.Session = s.sessionIDs.Generate()
	}
	s.cache.Clear()

	s.logger.Debug("session started",
		zap.String("session", s.owner.Session),
		zap.Strings("profiles", reg.Profiles()),
		zap.String("version", string(reg.Version())),
		zap.String("registry", reg.Fingerprint()),
		zap.Float64("linear_scale", s.scale.LinearScale),
		zap.Bool("cache", s.cache.Enabled()))
	return s
}

// Registry returns the session's registry.
func (s *Session) Registry() *registry.Registry {
	return s.registry
}

// Stats returns the counters so far.
func (s *Session) Stats() Stats {
	st := s.stats
	st.Cache = s.cache.Stats()
	return st
}

// Close ends the session and discards the cache.
func (s *Session) Close() {
	st := s.Stats()
	s.logger.Info("session finished",
		zap.String("session", s.owner.Session),
		zap.Int("entities", st.Entities),
		zap.Int("sets", st.Sets),
		zap.Int("properties", st.Properties),
		zap.Int("cache_hits", st.Cache.Hits),
		zap.Int("cache_entries", st.Cache.Entries))
	s.cache.Clear()
}
