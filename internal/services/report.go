package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mentornet/apiserver/internal/export"
	"github.com/mentornet/apiserver/types"
)

const (
	defaultAuthorityTimeout = 10 * time.Second
	defaultQueryTimeout     = 30 * time.Second
	defaultAuditChannel     = "report-exports"
	sideEffectTimeout       = 15 * time.Second
)

// AdminAuthority decides whether a caller holds administrative privilege.
type AdminAuthority interface {
	IsAdmin(ctx context.Context, remoteID string) (bool, error)
}

// ReportRepository computes the per-user activity aggregates.
type ReportRepository interface {
	UserAggregates(ctx context.Context) ([]types.ReportRow, error)
}

// ExportArchive stores a copy of an exported document.
type ExportArchive interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
}

// AuditPublisher delivers export audit events to a message broker.
type AuditPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// ReportServiceOptions carries the optional collaborators and timeouts for a
// ReportService. Zero values fall back to defaults; nil Archive/Events
// disable the corresponding side channel.
type ReportServiceOptions struct {
	Archive          ExportArchive
	Events           AuditPublisher
	AuditChannel     string
	AuthorityTimeout time.Duration
	QueryTimeout     time.Duration
	Logger           *slog.Logger
}

// ReportService runs the export pipeline: authorize the caller, build the
// aggregate report, encode it, then archive and publish an audit event.
// The stages run strictly in order and the first failure aborts the rest.
type ReportService struct {
	authority        AdminAuthority
	repo             ReportRepository
	archive          ExportArchive
	events           AuditPublisher
	auditChannel     string
	authorityTimeout time.Duration
	queryTimeout     time.Duration
	logger           *slog.Logger
}

func NewReportService(authority AdminAuthority, repo ReportRepository, opts ReportServiceOptions) *ReportService {
	if opts.AuditChannel == "" {
		opts.AuditChannel = defaultAuditChannel
	}
	if opts.AuthorityTimeout <= 0 {
		opts.AuthorityTimeout = defaultAuthorityTimeout
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &ReportService{
		authority:        authority,
		repo:             repo,
		archive:          opts.Archive,
		events:           opts.Events,
		auditChannel:     opts.AuditChannel,
		authorityTimeout: opts.AuthorityTimeout,
		queryTimeout:     opts.QueryTimeout,
		logger:           opts.Logger,
	}
}

// ExportEvent is the audit record published after a successful export.
type ExportEvent struct {
	Actor      string    `json:"actor"`
	Rows       int       `json:"rows"`
	Bytes      int       `json:"bytes"`
	ExportedAt time.Time `json:"exported_at"`
}

// Export runs the pipeline for the caller identified by remoteID and returns
// the encoded document.
//
// Error contract: a denied decision is ErrForbidden; a failed decision is
// ErrAuthorityUnavailable and no query is issued; a failed query is
// ErrReportQuery and nothing is encoded. The archive and audit side channels
// are best-effort and can not fail a completed export.
func (s *ReportService) Export(ctx context.Context, remoteID string, delimiter rune) ([]byte, error) {
	authCtx, cancelAuth := context.WithTimeout(ctx, s.authorityTimeout)
	defer cancelAuth()
	isAdmin, err := s.authority.IsAdmin(authCtx, remoteID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthorityUnavailable, err)
	}
	if !isAdmin {
		return nil, ErrForbidden
	}

	queryCtx, cancelQuery := context.WithTimeout(ctx, s.queryTimeout)
	defer cancelQuery()
	rows, err := s.repo.UserAggregates(queryCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportQuery, err)
	}

	doc, err := export.EncodeReport(rows, delimiter)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}

	s.afterExport(ctx, remoteID, len(rows), doc)
	return doc, nil
}

// afterExport archives the document and publishes the audit event. Both are
// best-effort; failures are logged and the export still counts as done.
func (s *ReportService) afterExport(ctx context.Context, actor string, rowCount int, doc []byte) {
	if s.archive == nil && s.events == nil {
		return
	}

	now := time.Now().UTC()
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if s.archive != nil {
		key := fmt.Sprintf("user-report-%s.csv", now.Format("20060102-150405"))
		if err := s.archive.Store(sideCtx, key, doc, "text/csv"); err != nil {
			s.logger.Warn("failed to archive report export",
				"key", key, "actor", actor, "error", err)
		}
	}

	if s.events != nil {
		event, err := json.Marshal(ExportEvent{
			Actor:      actor,
			Rows:       rowCount,
			Bytes:      len(doc),
			ExportedAt: now,
		})
		if err != nil {
			s.logger.Warn("failed to encode export audit event", "error", err)
			return
		}
		attrs := map[string]string{"actor": actor}
		if _, err := s.events.Publish(sideCtx, s.auditChannel, event, attrs); err != nil {
			s.logger.Warn("failed to publish export audit event",
				"channel", s.auditChannel, "actor", actor, "error", err)
		}
	}
}
