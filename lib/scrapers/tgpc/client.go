package tgpc

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"tgpc-backend/lib/telemetry"
)

var tracer = otel.Tracer("scrapers/tgpc")

const (
	listingPath = "/pharmacy/srchpharmacisttotal"
	detailPath  = "/pharmacy/getsearchpharmacist"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type ClientOptions struct {
	// if unspecified, it will default to the council website
	BaseUrl string
	// per-request attempts before giving up, defaults to 3
	MaxRetries  int
	RateLimiter RateLimiterOptions
}

// Client talks to the pharmacy council website. All requests go
// through the rate limiter, so a single Client must be shared by
// everything hitting the same host.
type Client struct {
	BaseUrl    *url.URL
	Http       *resty.Client
	Limiter    *RateLimiter
	maxRetries int
}

func NewClient(opts ClientOptions) (*Client, error) {
	rawurl := opts.BaseUrl
	if rawurl == "" {
		rawurl = "https://pharmacycouncil.telangana.gov.in"
	}
	baseurl, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := resty.New().
		SetCookieJar(jar).
		SetHeader("User-Agent", userAgent).
		SetTimeout(time.Second * 30)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(
		client.GetClient().Transport,
	)
	telemetry.InstrumentResty(client, "scrapers/tgpc/http")

	return &Client{
		BaseUrl:    baseurl,
		Http:       client,
		Limiter:    NewRateLimiter(opts.RateLimiter),
		maxRetries: maxRetries,
	}, nil
}

func (c *Client) resolve(path string) string {
	return c.BaseUrl.JoinPath(path).String()
}

// do sends a request through the rate limiter, retrying failed
// attempts with exponential backoff.
func (c *Client) do(ctx context.Context, send func(ctx context.Context) (*resty.Response, error)) (*resty.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(4<<(attempt-1)) * time.Second
			if backoff > time.Second*10 {
				backoff = time.Second * 10
			}
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		res, err := send(ctx)
		elapsed := time.Since(start)

		if err != nil {
			c.Limiter.Record(elapsed, 0, false)
			lastErr = err
			continue
		}
		if res.StatusCode() >= 400 {
			c.Limiter.Record(elapsed, res.StatusCode(), false)
			lastErr = fmt.Errorf("status code %d: %s", res.StatusCode(), res.Status())
			continue
		}

		c.Limiter.Record(elapsed, res.StatusCode(), true)
		return res, nil
	}
	return nil, lastErr
}

// FetchListingPage downloads the full pharmacist listing page.
func (c *Client) FetchListingPage(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchListingPage")
	defer span.End()

	res, err := c.do(ctx, func(ctx context.Context) (*resty.Response, error) {
		return c.Http.R().
			SetContext(ctx).
			Get(c.resolve(listingPath))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return res.String(), nil
}

// FetchDetailPage submits the search form for a single pharmacist and
// returns the response page.
func (c *Client) FetchDetailPage(ctx context.Context, query DetailQuery) (string, error) {
	ctx, span := tracer.Start(ctx, "FetchDetailPage")
	defer span.End()

	res, err := c.do(ctx, func(ctx context.Context) (*resty.Response, error) {
		return c.Http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"registration_no": query.RegistrationNumber,
				"app_name":        query.Name,
				"father_name":     query.FatherName,
				"dob":             query.DateOfBirth,
				"submit":          "Search",
			}).
			Post(c.resolve(detailPath))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return res.String(), nil
}

// FetchListing downloads and parses the pharmacist listing.
func (c *Client) FetchListing(ctx context.Context) ([]ListingRow, error) {
	ctx, span := tracer.Start(ctx, "FetchListing")
	defer span.End()

	page, err := c.FetchListingPage(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := ParseListing(page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return rows, nil
}

// TotalCount reports how many pharmacists the council lists.
func (c *Client) TotalCount(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "TotalCount")
	defer span.End()

	rows, err := c.FetchListing(ctx)
	if err != nil {
		return 0, err
	}

	serials := make(map[int]bool, len(rows))
	for _, row := range rows {
		if row.Serial > 0 {
			serials[row.Serial] = true
		}
	}
	// some listings come back without serial numbers at all
	if len(serials) == 0 {
		return len(rows), nil
	}
	return len(serials), nil
}

// FetchDetail downloads and parses the detail record of a single
// pharmacist. It returns ErrNoRecords when the council has no record
// for the query.
func (c *Client) FetchDetail(ctx context.Context, query DetailQuery) (*Detail, error) {
	ctx, span := tracer.Start(ctx, "FetchDetail")
	defer span.End()

	page, err := c.FetchDetailPage(ctx, query)
	if err != nil {
		return nil, err
	}
	detail, err := ParseDetail(page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return detail, nil
}
