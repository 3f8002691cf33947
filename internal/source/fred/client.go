package fred

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/radezheng/marco/internal/contracts"
	"github.com/radezheng/marco/pkg/httputil"
	"github.com/radezheng/marco/pkg/logger"
)

// SourceName tags observations ingested from this client
const SourceName = "fred"

// SeriesIDs maps internal series keys to FRED series identifiers.
// 部分序列在 FRED 分发里可能缺席（如 VXVCLS），采集层按序列单独容错。
var SeriesIDs = map[string]string{
	contracts.SeriesWALCL:    "WALCL",     // 美联储总资产
	contracts.SeriesTGA:      "WTREGEN",   // 财政部一般账户
	contracts.SeriesRRP:      "RRPONTSYD", // 隔夜逆回购
	contracts.SeriesSOFR:     "SOFR",
	contracts.SeriesEFFR:     "EFFR",
	contracts.SeriesIORB:     "IORB",
	contracts.SeriesDGS10:    "DGS10",
	contracts.SeriesVIX:      "VIXCLS",
	contracts.SeriesVXV:      "VXVCLS", // 3M VIX
	contracts.SeriesHYOAS:    "BAMLH0A0HYM2",
	contracts.SeriesUSDBroad: "DTWEXBGS",
}

// Client fetches series from the FRED public CSV export (no API key).
type Client struct {
	http    *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// NewClient creates a FRED CSV client
func NewClient(http *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{http: http, baseURL: strings.TrimRight(baseURL, "/"), logger: log}
}

// FetchSeries downloads and parses one series' full history.
func (c *Client) FetchSeries(ctx context.Context, seriesKey string) ([]contracts.Observation, error) {
	fredID, ok := SeriesIDs[seriesKey]
	if !ok {
		return nil, fmt.Errorf("fred: no series id for key %q", seriesKey)
	}

	endpoint := c.baseURL + "/graph/fredgraph.csv"
	body, err := c.http.Get(ctx, endpoint, url.Values{"id": {fredID}})
	if err != nil {
		return nil, fmt.Errorf("fred: fetch %s: %w", fredID, err)
	}

	obs, err := ParseCSV(seriesKey, body)
	if err != nil {
		return nil, fmt.Errorf("fred: parse %s: %w", fredID, err)
	}

	if c.logger != nil {
		c.logger.Debugf("FRED %s: %d observations", fredID, len(obs))
	}
	return obs, nil
}

// ParseCSV parses the fredgraph CSV body (header row, then date,value rows).
// 缺测值标记为 "."，直接跳过该行。
func ParseCSV(seriesKey string, body []byte) ([]contracts.Observation, error) {
	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("unexpected column count %d", len(header))
	}

	var obs []contracts.Observation
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(record) < 2 {
			continue
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}

		raw := strings.TrimSpace(record[1])
		if raw == "" || raw == "." {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}

		obs = append(obs, contracts.Observation{
			SeriesKey: seriesKey,
			Date:      contracts.DateOf(date),
			Value:     value,
			Source:    SourceName,
		})
	}
	return obs, nil
}
