package usaspending

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"awardwatch-backend/lib/tabular"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html"
)

// ExtractTable parses the transactions table out of a rendered award
// page. Header cells prefer the bare text node inside
// .table-header__label, since the full label text also contains sort
// button captions. Rows shorter than the header set are padded, longer
// ones truncated.
func ExtractTable(r io.Reader) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Table{}, err
	}

	table := doc.Find("div.results-table-content table").First()
	if table.Length() == 0 {
		return Table{}, fmt.Errorf("results table not found under container")
	}

	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		text := headerLabel(th)
		if text != "" {
			headers = append(headers, text)
		}
	})
	if len(headers) == 0 {
		return Table{}, fmt.Errorf("results table has no header row")
	}

	var rows []tabular.Row
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, tabular.NormalizeSpace(td.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, tabular.FromCells(headers, cells))
		}
	})

	return Table{Headers: headers, Rows: rows}, nil
}

func headerLabel(th *goquery.Selection) string {
	label := th.Find(".table-header__label").First()
	if label.Length() == 0 {
		return tabular.NormalizeSpace(th.Text())
	}
	for _, node := range label.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.TextNode {
				continue
			}
			if text := tabular.NormalizeSpace(child.Data); text != "" {
				return text
			}
		}
	}
	return tabular.NormalizeSpace(label.Text())
}

// PageClient fetches rendered award pages and extracts the
// transactions table from them. This is the legacy source kept for
// awards the transactions API does not cover; the page host sits
// behind cloudflare, hence the bypass transport.
type PageClient struct {
	http *resty.Client
}

func NewPageClient() *PageClient {
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	instrumentClient(client)

	return &PageClient{http: client}
}

const awardPageBaseUrl = "https://www.usaspending.gov/award/"

// FetchTransactions fetches the public award page for the given award
// id and extracts its transactions table, giving PageClient the same
// shape as the API client so either can back a watch run.
func (c *PageClient) FetchTransactions(ctx context.Context, awardId string) (Table, error) {
	return c.FetchPage(ctx, awardPageBaseUrl+awardId)
}

// FetchPage downloads the award page at url and extracts its
// transactions table.
func (c *PageClient) FetchPage(ctx context.Context, url string) (Table, error) {
	ctx, span := tracer.Start(ctx, "pageclient:FetchPage")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "page request failed")
		return Table{}, err
	}
	if res.StatusCode() != 200 {
		err := fmt.Errorf("page request returned status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return Table{}, err
	}

	return ExtractTable(strings.NewReader(res.String()))
}
