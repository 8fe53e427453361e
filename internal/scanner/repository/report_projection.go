package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// eventDedupTTL bounds how long applied event ids are remembered
const eventDedupTTL = 24 * time.Hour

// ScanFact is one committed scan as seen by the report projection
type ScanFact struct {
	EventID        string
	OrganizationID string
	SessionID      string
	OperatorID     string
	Quantity       int
}

// OperatorTotal is an operator's share of the organization's scans
type OperatorTotal struct {
	UserID string `json:"user_id"`
	Scans  int64  `json:"scans"`
	Units  int64  `json:"units"`
}

// ReportTotals are the organization-wide counters
type ReportTotals struct {
	Scans    int64 `json:"scans"`
	Units    int64 `json:"units"`
	Sessions int64 `json:"sessions"`
}

// ReportProjection keeps per-organization scan aggregates in redis sorted sets
type ReportProjection struct {
	client redis.UniversalClient
}

// NewReportProjection creates a projection on client
func NewReportProjection(client redis.UniversalClient) *ReportProjection {
	return &ReportProjection{client: client}
}

// Keys share the organization hash tag so the apply script stays in one slot.
func reportKey(organizationID, name string) string {
	return fmt.Sprintf("scanner:report:{%s}:%s", organizationID, name)
}

// applyScript checks the key types before writing anything, then claims the
// event id and folds the scan in. Either every counter moves or none does.
var applyScript = redis.NewScript(`
local expected = {'zset', 'zset', 'zset', 'hash'}
for i = 1, 4 do
  local t = redis.call('TYPE', KEYS[i])
  if type(t) == 'table' then t = t.ok end
  if t ~= 'none' and t ~= expected[i] then
    return redis.error_reply('WRONGTYPE ' .. KEYS[i])
  end
end
if ARGV[1] ~= '' then
  if not redis.call('SET', KEYS[5], '1', 'NX', 'EX', ARGV[2]) then
    return 0
  end
end
redis.call('ZINCRBY', KEYS[1], 1, ARGV[3])
redis.call('ZINCRBY', KEYS[2], ARGV[4], ARGV[3])
redis.call('ZINCRBY', KEYS[3], 1, ARGV[5])
redis.call('HINCRBY', KEYS[4], 'scans', 1)
redis.call('HINCRBY', KEYS[4], 'units', ARGV[4])
return 1
`)

// Apply folds one scan into the aggregates. Facts carrying an already
// applied event id are ignored, so redelivered messages count once. A failed
// apply leaves no trace, so a redelivery is applied in full.
func (p *ReportProjection) Apply(ctx context.Context, fact ScanFact) (bool, error) {
	keys := []string{
		reportKey(fact.OrganizationID, "operator_scans"),
		reportKey(fact.OrganizationID, "operator_units"),
		reportKey(fact.OrganizationID, "session_scans"),
		reportKey(fact.OrganizationID, "totals"),
		reportKey(fact.OrganizationID, "event:"+fact.EventID),
	}
	applied, err := applyScript.Run(ctx, p.client, keys,
		fact.EventID,
		int(eventDedupTTL.Seconds()),
		fact.OperatorID,
		fact.Quantity,
		fact.SessionID,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to apply scan to report: %w", err)
	}
	return applied == 1, nil
}

// Totals returns the organization counters
func (p *ReportProjection) Totals(ctx context.Context, organizationID string) (ReportTotals, error) {
	var totals ReportTotals

	values, err := p.client.HGetAll(ctx, reportKey(organizationID, "totals")).Result()
	if err != nil {
		return totals, fmt.Errorf("failed to read report totals: %w", err)
	}
	totals.Scans, _ = strconv.ParseInt(values["scans"], 10, 64)
	totals.Units, _ = strconv.ParseInt(values["units"], 10, 64)

	totals.Sessions, err = p.client.ZCard(ctx, reportKey(organizationID, "session_scans")).Result()
	if err != nil {
		return totals, fmt.Errorf("failed to read report sessions: %w", err)
	}
	return totals, nil
}

// TopOperators returns up to n operators ordered by scan count
func (p *ReportProjection) TopOperators(ctx context.Context, organizationID string, n int) ([]OperatorTotal, error) {
	if n <= 0 {
		return nil, nil
	}

	scans, err := p.client.ZRevRangeWithScores(ctx, reportKey(organizationID, "operator_scans"), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read top operators: %w", err)
	}

	out := make([]OperatorTotal, 0, len(scans))
	for _, z := range scans {
		member, _ := z.Member.(string)
		units, err := p.client.ZScore(ctx, reportKey(organizationID, "operator_units"), member).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to read operator units: %w", err)
		}
		out = append(out, OperatorTotal{
			UserID: member,
			Scans:  int64(z.Score),
			Units:  int64(units),
		})
	}
	return out, nil
}
