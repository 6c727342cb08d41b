package usaspending

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"awardwatch-backend/lib/tabular"

	"github.com/go-resty/resty/v2"
	random "github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://api.usaspending.gov"

// TransactionHeaders is the column set every fetched table carries, in
// display order. It intentionally matches the columns of the
// transactions table on the award page so snapshots taken from the
// legacy page source stay comparable.
var TransactionHeaders = []string{
	"Modification Number",
	"Action Date",
	"Amount",
	"Action Type",
	"Transaction Description",
}

// Table is one fetched transaction history: a stable ordered header
// list plus zero or more rows keyed by those headers. A zero-row Table
// is a successful fetch with no data, distinct from an error return.
type Table struct {
	Headers []string
	Rows    []tabular.Row
}

// RetryPolicy caps transient-failure retries on the HTTP client.
// Waits grow exponentially from BaseWait up to MaxWait with jitter.
type RetryPolicy struct {
	Attempts int           `json:"attempts"`
	BaseWait time.Duration `json:"base_wait"`
	MaxWait  time.Duration `json:"max_wait"`
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		BaseWait: 500 * time.Millisecond,
		MaxWait:  8 * time.Second,
	}
}

type ClientOptions struct {
	BaseUrl string
	Retry   RetryPolicy
	// requests per second against the API, 0 means unlimited
	RateLimit float64
	// when set, the body of a response that still fails after all
	// retries is dumped here as <timestamp>_fail.json
	DiagnosticsDir string
}

type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	diagDir string
}

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)
	client.SetRetryCount(opts.Retry.Attempts - 1)
	client.SetRetryWaitTime(opts.Retry.BaseWait)
	client.SetRetryMaxWaitTime(opts.Retry.MaxWait)
	client.SetRetryAfter(retryAfter(opts.Retry))
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return res.StatusCode() >= 500 || res.StatusCode() == 429
	})

	instrumentClient(client)

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{http: client, limiter: limiter, diagDir: opts.DiagnosticsDir}
}

// saveDiagnostics keeps the last failing response body around for
// debugging scheduled runs, mirroring where snapshots live.
func (c *Client) saveDiagnostics(body string) {
	if c.diagDir == "" || body == "" {
		return
	}
	path := filepath.Join(c.diagDir, time.Now().Format("20060102-150405")+"_fail.json")
	err := os.WriteFile(path, []byte(body), 0o644)
	if err != nil {
		slog.Warn("failed to save fetch diagnostics", "path", path, "err", err)
		return
	}
	slog.Info("saved fetch diagnostics", "path", path)
}

// retryAfter implements capped exponential backoff with random jitter
// so scheduled runs don't hammer the API in lockstep.
func retryAfter(policy RetryPolicy) resty.RetryAfterFunc {
	return func(cli *resty.Client, res *resty.Response) (time.Duration, error) {
		wait := policy.BaseWait << res.Request.Attempt
		if wait > policy.MaxWait {
			wait = policy.MaxWait
		}
		jitterMs, err := random.IntRange(0, int(policy.BaseWait/time.Millisecond)+1)
		if err != nil {
			jitterMs = 0
		}
		return wait + time.Duration(jitterMs)*time.Millisecond, nil
	}
}

type transactionsRequest struct {
	AwardId string `json:"award_id"`
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	Sort    string `json:"sort"`
	Order   string `json:"order"`
}

type transactionsResponse struct {
	Results []struct {
		ModificationNumber      string  `json:"modification_number"`
		ActionDate              string  `json:"action_date"`
		FederalActionObligation float64 `json:"federal_action_obligation"`
		ActionTypeDescription   string  `json:"action_type_description"`
		Description             string  `json:"description"`
	} `json:"results"`
	PageMetadata struct {
		Page    int  `json:"page"`
		HasNext bool `json:"hasNext"`
	} `json:"page_metadata"`
}

// FetchTransactions pages through the full transaction history of one
// award (the generated unique award id, e.g. "CONT_AWD_...") and
// returns it as a Table under TransactionHeaders.
func (c *Client) FetchTransactions(ctx context.Context, awardId string) (Table, error) {
	ctx, span := tracer.Start(ctx, "client:FetchTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("award_id", awardId))

	var rows []tabular.Row
	for page := 1; ; page++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return Table{}, err
			}
		}

		var body transactionsResponse
		res, err := c.http.R().
			SetContext(ctx).
			SetBody(transactionsRequest{
				AwardId: awardId,
				Page:    page,
				Limit:   100,
				Sort:    "action_date",
				Order:   "desc",
			}).
			SetResult(&body).
			Post("/api/v2/transactions/")
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "transactions request failed")
			return Table{}, err
		}
		if res.StatusCode() != 200 {
			err := fmt.Errorf("transactions request returned status %d: %s", res.StatusCode(), res.String())
			span.RecordError(err)
			span.SetStatus(codes.Error, "unexpected status")
			c.saveDiagnostics(res.String())
			return Table{}, err
		}

		for _, tx := range body.Results {
			rows = append(rows, tabular.Row{
				"Modification Number":     tx.ModificationNumber,
				"Action Date":             tx.ActionDate,
				"Amount":                  FormatAmount(tx.FederalActionObligation),
				"Action Type":             tx.ActionTypeDescription,
				"Transaction Description": tx.Description,
			})
		}
		if !body.PageMetadata.HasNext {
			break
		}
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	return Table{Headers: TransactionHeaders, Rows: rows}, nil
}

// FormatAmount renders an obligation the way the award page displays
// it ("$1,234.50", negatives as "-$500.00") so API-sourced snapshots
// read naturally in the digest.
func FormatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)

	intPart, fracPart, _ := strings.Cut(s, ".")
	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := "$" + strings.Join(groups, ",") + "." + fracPart
	if neg {
		return "-" + out
	}
	return out
}
