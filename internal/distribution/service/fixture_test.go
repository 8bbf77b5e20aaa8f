package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/leadflow/internal/audit/domain"
	auditrepository "github.com/smallbiznis/leadflow/internal/audit/repository"
	auditservice "github.com/smallbiznis/leadflow/internal/audit/service"
	"github.com/smallbiznis/leadflow/internal/clock"
	distributiondomain "github.com/smallbiznis/leadflow/internal/distribution/domain"
	"github.com/smallbiznis/leadflow/internal/distribution/eligibility"
	distributionrepository "github.com/smallbiznis/leadflow/internal/distribution/repository"
	leaddomain "github.com/smallbiznis/leadflow/internal/lead/domain"
	leadrepository "github.com/smallbiznis/leadflow/internal/lead/repository"
	ledgerdomain "github.com/smallbiznis/leadflow/internal/ledger/domain"
	ledgerrepository "github.com/smallbiznis/leadflow/internal/ledger/repository"
	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
	nicherepository "github.com/smallbiznis/leadflow/internal/niche/repository"
	"github.com/smallbiznis/leadflow/internal/notification"
	providerdomain "github.com/smallbiznis/leadflow/internal/provider/domain"
	providerrepository "github.com/smallbiznis/leadflow/internal/provider/repository"
	subscriptiondomain "github.com/smallbiznis/leadflow/internal/subscription/domain"
	subscriptionrepository "github.com/smallbiznis/leadflow/internal/subscription/repository"
)

type fixture struct {
	t     *testing.T
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   *Service

	nicheID snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&nichedomain.Niche{},
		&nichedomain.CompetitionLevel{},
		&nichedomain.NicheField{},
		&leaddomain.Lead{},
		&providerdomain.Provider{},
		&subscriptiondomain.Subscription{},
		&distributiondomain.Assignment{},
		&ledgerdomain.LedgerEntry{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	nicheRepo := nicherepository.Provide()
	subRepo := subscriptionrepository.Provide()
	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  auditrepository.Provide(),
	})
	resolver := eligibility.NewResolver(db, log, nicheRepo, subRepo, eligibility.NewMemoryCache(0))

	svc := NewServiceWithConfig(Params{
		DB:           db,
		Log:          log,
		Clock:        fakeClock,
		GenID:        node,
		LeadRepo:     leadrepository.Provide(),
		NicheRepo:    nicheRepo,
		ProviderRepo: providerrepository.Provide(),
		SubRepo:      subRepo,
		LedgerRepo:   ledgerrepository.Provide(),
		AssignRepo:   distributionrepository.Provide(),
		Resolver:     resolver,
		AuditSvc:     auditSvc,
		Notifier:     notification.NewNotifier(&notification.NoOpProvider{}, log),
	}, Config{
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
		RetryMaxJitter: time.Millisecond,
	}).(*Service)

	return &fixture{
		t:       t,
		db:      db,
		node:    node,
		clock:   fakeClock,
		svc:     svc,
		nicheID: node.Generate(),
	}
}

func (f *fixture) createNiche(rotationPosition int) {
	require.NoError(f.t, f.db.Create(&nichedomain.Niche{
		ID:               f.nicheID,
		Name:             "plumbing",
		RotationPosition: rotationPosition,
		Active:           true,
	}).Error)
}

func (f *fixture) createLevel(position, maxRecipients int, price int64) snowflake.ID {
	id := f.node.Generate()
	require.NoError(f.t, f.db.Create(&nichedomain.CompetitionLevel{
		ID:            id,
		NicheID:       f.nicheID,
		Position:      position,
		MaxRecipients: maxRecipients,
		PricePerLead:  price,
		Active:        true,
	}).Error)
	return id
}

func (f *fixture) createProvider(balance int64) snowflake.ID {
	id := f.node.Generate()
	require.NoError(f.t, f.db.Create(&providerdomain.Provider{
		ID:      id,
		Name:    "Provider " + id.String(),
		Email:   "provider-" + id.String() + "@example.com",
		Balance: balance,
	}).Error)
	return id
}

func (f *fixture) createSubscription(levelID, providerID snowflake.ID, lastServedAt *time.Time) snowflake.ID {
	id := f.node.Generate()
	require.NoError(f.t, f.db.Create(&subscriptiondomain.Subscription{
		ID:           id,
		ProviderID:   providerID,
		LevelID:      levelID,
		Active:       true,
		FiltersValid: true,
		LastServedAt: lastServedAt,
	}).Error)
	return id
}

func (f *fixture) createSubscriptionWithRules(levelID, providerID snowflake.ID, rules string) snowflake.ID {
	id := f.node.Generate()
	require.NoError(f.t, f.db.Create(&subscriptiondomain.Subscription{
		ID:           id,
		ProviderID:   providerID,
		LevelID:      levelID,
		Active:       true,
		FiltersValid: true,
		FilterRules:  datatypes.JSON(rules),
	}).Error)
	return id
}

func (f *fixture) createLead(status leaddomain.LeadStatus, values map[string]any) snowflake.ID {
	id := f.node.Generate()
	require.NoError(f.t, f.db.Create(&leaddomain.Lead{
		ID:          id,
		NicheID:     f.nicheID,
		Status:      status,
		FieldValues: values,
	}).Error)
	return id
}

func (f *fixture) reloadLead(id snowflake.ID) leaddomain.Lead {
	var lead leaddomain.Lead
	require.NoError(f.t, f.db.First(&lead, "id = ?", id).Error)
	return lead
}

func (f *fixture) reloadProvider(id snowflake.ID) providerdomain.Provider {
	var p providerdomain.Provider
	require.NoError(f.t, f.db.First(&p, "id = ?", id).Error)
	return p
}

func (f *fixture) reloadNiche() nichedomain.Niche {
	var n nichedomain.Niche
	require.NoError(f.t, f.db.First(&n, "id = ?", f.nicheID).Error)
	return n
}

func (f *fixture) ledgerEntries(providerID snowflake.ID) []ledgerdomain.LedgerEntry {
	var entries []ledgerdomain.LedgerEntry
	require.NoError(f.t, f.db.Order("created_at asc, id asc").Find(&entries, "provider_id = ?", providerID).Error)
	return entries
}

func (f *fixture) assignments(leadID snowflake.ID) []distributiondomain.Assignment {
	var assignments []distributiondomain.Assignment
	require.NoError(f.t, f.db.Order("id asc").Find(&assignments, "lead_id = ?", leadID).Error)
	return assignments
}
