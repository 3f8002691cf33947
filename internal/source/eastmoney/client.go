package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/pkg/httputil"
	"github.com/radezheng/marco/pkg/logger"
)

// SourceName tags observations ingested from this client
const SourceName = "eastmoney"

// Client fetches industry board data from the Eastmoney push2 API.
// ⭐ SSOT: 东财行情请求只经过这里
// 接口无密钥，靠 httputil 的限速自律；板块列表另有 HTML 兜底解析。
type Client struct {
	http        *httputil.Client
	pushBaseURL string
	histBaseURL string
	boardPage   string
	logger      *logger.Logger
}

// NewClient creates an Eastmoney client
func NewClient(http *httputil.Client, pushBaseURL, histBaseURL, boardPageURL string, log *logger.Logger) *Client {
	return &Client{
		http:        http,
		pushBaseURL: strings.TrimRight(pushBaseURL, "/"),
		histBaseURL: strings.TrimRight(histBaseURL, "/"),
		boardPage:   boardPageURL,
		logger:      log,
	}
}

// pctValue tolerates push2 returning "-" for suspended names
type pctValue float64

// UnmarshalJSON accepts both a number and the "-" placeholder.
func (p *pctValue) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "-" || s == "" || s == "null" {
		*p = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*p = pctValue(v)
	return nil
}

// clistResponse is the push2 clist/get envelope
type clistResponse struct {
	Data *struct {
		Total int `json:"total"`
		Diff  []struct {
			Code string   `json:"f12"`
			Name string   `json:"f14"`
			Pct  pctValue `json:"f3"`
		} `json:"diff"`
	} `json:"data"`
}

// klineResponse is the push2his daykline/kline envelope
type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// FetchIndustryList returns the industry board list (code like "BK0428").
// push2 接口失败时回退到板块中心页面的 HTML 解析。
func (c *Client) FetchIndustryList(ctx context.Context) ([]contracts.SectorIndustry, error) {
	endpoint := c.pushBaseURL + "/api/qt/clist/get"
	params := url.Values{
		"pn":     {"1"},
		"pz":     {"200"},
		"po":     {"1"},
		"np":     {"1"},
		"fltt":   {"2"},
		"invt":   {"2"},
		"fid":    {"f3"},
		"fs":     {"m:90 t:2 f:!50"},
		"fields": {"f12,f14"},
	}

	var resp clistResponse
	if err := c.http.GetJSON(ctx, endpoint, params, &resp); err != nil {
		if c.boardPage == "" {
			return nil, fmt.Errorf("eastmoney: industry list: %w", err)
		}
		c.logger.WithError(err).Warn("东财板块列表接口失败，回退 HTML 解析")
		return c.fetchIndustryListHTML(ctx)
	}
	if resp.Data == nil || len(resp.Data.Diff) == 0 {
		if c.boardPage != "" {
			return c.fetchIndustryListHTML(ctx)
		}
		return nil, fmt.Errorf("eastmoney: industry list: empty response")
	}

	industries := make([]contracts.SectorIndustry, 0, len(resp.Data.Diff))
	for _, d := range resp.Data.Diff {
		if d.Code == "" || d.Name == "" {
			continue
		}
		industries = append(industries, contracts.SectorIndustry{Code: d.Code, Name: d.Name})
	}
	return industries, nil
}

// fetchIndustryListHTML scrapes the board center page as a degraded path.
func (c *Client) fetchIndustryListHTML(ctx context.Context) ([]contracts.SectorIndustry, error) {
	body, err := c.http.Get(ctx, c.boardPage, nil)
	if err != nil {
		return nil, fmt.Errorf("eastmoney: board page: %w", err)
	}

	industries, err := ParseBoardHTML(body)
	if err != nil {
		return nil, fmt.Errorf("eastmoney: parse board page: %w", err)
	}
	return industries, nil
}

// FetchFundFlowHist returns one board's daily main-net inflow history.
// klines 每行: 日期,主力净额,小单,中单,大单,超大单,...（单位元）。
func (c *Client) FetchFundFlowHist(ctx context.Context, code string) ([]contracts.Observation, error) {
	endpoint := c.histBaseURL + "/api/qt/stock/fflow/daykline/get"
	params := url.Values{
		"lmt":     {"0"},
		"klt":     {"101"},
		"secid":   {"90." + code},
		"fields1": {"f1,f2,f3,f7"},
		"fields2": {"f51,f52,f53,f54,f55,f56"},
	}

	var resp klineResponse
	if err := c.http.GetJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, fmt.Errorf("eastmoney: fund flow %s: %w", code, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("eastmoney: fund flow %s: empty response", code)
	}

	obs, err := ParseFlowKlines(code, resp.Data.Klines)
	if err != nil {
		return nil, fmt.Errorf("eastmoney: fund flow %s: %w", code, err)
	}
	return obs, nil
}

// FetchBoardKlines returns one board's daily close series.
// klines 每行: 日期,开盘,收盘,最高,最低,成交量,成交额。
func (c *Client) FetchBoardKlines(ctx context.Context, code string, limit int) ([]contracts.Observation, error) {
	endpoint := c.histBaseURL + "/api/qt/stock/kline/get"
	params := url.Values{
		"secid":   {"90." + code},
		"klt":     {"101"},
		"fqt":     {"0"},
		"lmt":     {fmt.Sprintf("%d", limit)},
		"end":     {"20500101"},
		"fields1": {"f1,f2,f3,f4,f5,f6"},
		"fields2": {"f51,f52,f53,f54,f55,f56,f57"},
	}

	var resp klineResponse
	if err := c.http.GetJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, fmt.Errorf("eastmoney: klines %s: %w", code, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("eastmoney: klines %s: empty response", code)
	}

	obs, err := ParseCloseKlines(code, resp.Data.Klines)
	if err != nil {
		return nil, fmt.Errorf("eastmoney: klines %s: %w", code, err)
	}
	return obs, nil
}

// ConstituentQuote is one member stock's intraday change
type ConstituentQuote struct {
	Code      string
	Name      string
	ChangePct float64
}

// FetchConstituents returns the member quotes of one board for breadth.
func (c *Client) FetchConstituents(ctx context.Context, code string) ([]ConstituentQuote, error) {
	endpoint := c.pushBaseURL + "/api/qt/clist/get"
	params := url.Values{
		"pn":     {"1"},
		"pz":     {"1000"},
		"po":     {"1"},
		"np":     {"1"},
		"fltt":   {"2"},
		"invt":   {"2"},
		"fid":    {"f3"},
		"fs":     {"b:" + code},
		"fields": {"f3,f12,f14"},
	}

	var resp clistResponse
	if err := c.http.GetJSON(ctx, endpoint, params, &resp); err != nil {
		return nil, fmt.Errorf("eastmoney: constituents %s: %w", code, err)
	}
	if resp.Data == nil {
		return nil, nil
	}

	quotes := make([]ConstituentQuote, 0, len(resp.Data.Diff))
	for _, d := range resp.Data.Diff {
		quotes = append(quotes, ConstituentQuote{Code: d.Code, Name: d.Name, ChangePct: float64(d.Pct)})
	}
	return quotes, nil
}
