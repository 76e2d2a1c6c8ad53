// test/e2e/estimate_flow_test.go
package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"renovation-estimator/internal/common/camunda"
	"renovation-estimator/internal/common/config"
	"renovation-estimator/internal/common/database"
	"renovation-estimator/internal/common/logger"
	"renovation-estimator/internal/estimator"

	cre "renovation-estimator/internal/workers/estimate/calculate-renovation-estimate"
	ire "renovation-estimator/internal/workers/estimate/index-renovation-estimate"
	nre "renovation-estimator/internal/workers/estimate/notify-renovation-estimate"
	pre "renovation-estimator/internal/workers/estimate/persist-renovation-estimate"
	vri "renovation-estimator/internal/workers/estimate/validate-renovation-input"
)

// ==========================
// Process variable plumbing
// ==========================

// variables mimics the process instance scope: each completed job merges
// its output into it and the next job reads its input from it.
type variables map[string]interface{}

func (v variables) merge(t *testing.T, output interface{}) {
	t.Helper()
	data, err := json.Marshal(output)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	for k, val := range m {
		v[k] = val
	}
}

func (v variables) decode(t *testing.T, dst interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dst))
}

func (v variables) json(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func surveyVariables() variables {
	return variables{
		"project": map[string]interface{}{
			"location":     "Urban",
			"city":         "Leeds",
			"propertyAge":  "0-10 years",
			"propertyType": "Terraced House",
			"rooms": []interface{}{
				map[string]interface{}{"roomType": "Kitchen", "width": 3, "length": 4, "floorFinish": "Engineered Wood", "wallFinish": "Paint"},
				map[string]interface{}{"roomType": "Hallway", "width": 1, "length": 2, "floorFinish": "Laminate", "wallFinish": "Paint"},
			},
		},
		"recipient": map[string]interface{}{"name": "Sam", "email": "sam@example.com"},
	}
}

type sesStub struct{ mock.Mock }

func (m *sesStub) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

type snsStub struct{ mock.Mock }

func (m *snsStub) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

// ==========================
// In-process flow
// ==========================

func TestEstimateFlow_InProcess(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger(t)
	card := estimator.DefaultRateCard()
	vars := surveyVariables()

	// validate
	validate := vri.NewHandler(vri.DefaultConfig(), card, log)
	vOut, err := validate.Execute(ctx, vars.json(t))
	require.NoError(t, err)
	require.True(t, vOut.InputValid, "%+v", vOut.ValidationErrors)
	vars.merge(t, vOut)

	// calculate, twice to exercise the cache
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	calculate := cre.NewHandler(cre.DefaultConfig(), card, rdb, nil, log)

	var cIn cre.Input
	vars.decode(t, &cIn)
	cOut, err := calculate.Execute(ctx, &cIn)
	require.NoError(t, err)
	assert.False(t, cOut.Cached)
	again, err := calculate.Execute(ctx, &cIn)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, cOut.EstimateTotal, again.EstimateTotal)
	vars.merge(t, cOut)

	// The hallway falls under the minimum room fee.
	require.Len(t, cOut.Estimate.Rooms, 2)
	assert.Equal(t, 1188.0, cOut.Estimate.Rooms[0].FinalCost)
	assert.True(t, cOut.Estimate.Rooms[1].MinimumFeeApplied)
	assert.Equal(t, 1388.0, cOut.EstimateTotal)

	// persist
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlMock.ExpectExec(`INSERT INTO estimates`).WillReturnResult(sqlmock.NewResult(0, 1))
	persist := pre.NewHandler(pre.DefaultConfig(), database.NewEstimateStore(sqlx.NewDb(db, "postgres")), log)

	var pIn pre.Input
	vars.decode(t, &pIn)
	pOut, err := persist.Execute(ctx, &pIn)
	require.NoError(t, err)
	require.NotEmpty(t, pOut.EstimateID)
	require.NoError(t, sqlMock.ExpectationsWereMet())
	vars.merge(t, pOut)

	// index
	var indexedPath string
	es := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		indexedPath = r.URL.Path
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer es.Close()
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{es.URL}})
	require.NoError(t, err)
	index := ire.NewHandler(ire.DefaultConfig(), esClient, log)

	var iIn ire.Input
	vars.decode(t, &iIn)
	iOut, err := index.Execute(ctx, &iIn)
	require.NoError(t, err)
	assert.True(t, iOut.Indexed)
	assert.Equal(t, "/renovation-estimates/_doc/"+pOut.EstimateID, indexedPath)
	vars.merge(t, iOut)

	// notify
	sesMock := &sesStub{}
	sesMock.On("SendEmail", mock.Anything, mock.Anything).
		Return(&ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil).Once()
	notify := nre.NewHandler(nre.DefaultConfig(), sesMock, &snsStub{}, log)

	var nIn nre.Input
	vars.decode(t, &nIn)
	nOut, err := notify.Execute(ctx, &nIn)
	require.NoError(t, err)
	assert.Equal(t, nre.StatusSent, nOut.Status)
	sesMock.AssertExpectations(t)

	sent := sesMock.Calls[0].Arguments.Get(1).(*ses.SendEmailInput)
	assert.Contains(t, aws.ToString(sent.Message.Body.Text.Data), pOut.EstimateID)
	assert.Contains(t, aws.ToString(sent.Message.Subject.Data), "1,388")
}

func TestEstimateFlow_InvalidSurveyStopsAtValidation(t *testing.T) {
	vars := surveyVariables()
	project := vars["project"].(map[string]interface{})
	project["location"] = "Atlantis"
	project["rooms"] = []interface{}{
		map[string]interface{}{"roomType": "Kitchen", "width": 3, "length": 4, "floorFinish": "Marble", "wallFinish": "Paint"},
	}

	validate := vri.NewHandler(vri.DefaultConfig(), estimator.DefaultRateCard(), logger.NewTestLogger(t))
	out, err := validate.Execute(context.Background(), vars.json(t))
	require.NoError(t, err)
	assert.False(t, out.InputValid)
	require.Len(t, out.ValidationErrors, 2)
	assert.Equal(t, "project.location", out.ValidationErrors[0].Field)
	assert.Equal(t, "project.rooms[0].floorFinish", out.ValidationErrors[1].Field)
}

// ==========================
// Live services
// ==========================

// TestEstimateFlow_Live runs against the services named in configs/config.yaml.
// Set E2E_LIVE=1 with Zeebe, PostgreSQL, Redis and Elasticsearch running.
func TestEstimateFlow_Live(t *testing.T) {
	if os.Getenv("E2E_LIVE") == "" {
		t.Skip("set E2E_LIVE=1 to run against live services")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	log := logger.NewTestLogger(t)

	zeebe, err := camunda.NewClient(cfg.Camunda.BrokerAddress, log)
	require.NoError(t, err, "Zeebe gateway not reachable")
	defer zeebe.Close()

	pg, err := database.ConnectPostgres(ctx, cfg.Database.Postgres, 30*time.Second, log)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, database.Migrate(ctx, pg.DB.DB, log))

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx))

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, es.EnsureIndex(ctx, cfg.Database.Elasticsearch.Index, database.EstimatesMapping))

	card, err := cfg.Pricing.RateCard()
	require.NoError(t, err)
	vars := surveyVariables()

	var cIn cre.Input
	vars.decode(t, &cIn)
	cOut, err := cre.NewHandler(cre.DefaultConfig(), card, rdb.Client, nil, log).Execute(ctx, &cIn)
	require.NoError(t, err)
	vars.merge(t, cOut)

	store := database.NewEstimateStore(pg.DB)
	var pIn pre.Input
	vars.decode(t, &pIn)
	pOut, err := pre.NewHandler(pre.DefaultConfig(), store, log).Execute(ctx, &pIn)
	require.NoError(t, err)
	vars.merge(t, pOut)

	rec, err := store.Get(ctx, pOut.EstimateID)
	require.NoError(t, err)
	assert.Equal(t, cOut.EstimateTotal, rec.Total)

	idxCfg := ire.DefaultConfig()
	idxCfg.Index = cfg.Database.Elasticsearch.Index
	idxCfg.Refresh = "wait_for"
	var iIn ire.Input
	vars.decode(t, &iIn)
	iOut, err := ire.NewHandler(idxCfg, es.Client, log).Execute(ctx, &iIn)
	require.NoError(t, err)
	assert.True(t, iOut.Indexed)
}
