package eastmoney

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/radezheng/marco/internal/contracts"
)

// ParseFlowKlines converts fflow daykline rows to main-net observations.
// 行格式: "2025-07-01,123456.0,..."，第 2 列是主力净额。
func ParseFlowKlines(code string, klines []string) ([]contracts.Observation, error) {
	obs := make([]contracts.Observation, 0, len(klines))
	for _, line := range klines {
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			continue
		}

		date, err := time.Parse("2006-01-02", fields[0])
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}

		obs = append(obs, contracts.Observation{
			SeriesKey: code,
			Date:      contracts.DateOf(date),
			Value:     value,
			Source:    SourceName,
		})
	}
	if len(klines) > 0 && len(obs) == 0 {
		return nil, fmt.Errorf("no parsable rows out of %d", len(klines))
	}
	return obs, nil
}

// ParseCloseKlines converts kline rows to close observations.
// 行格式: "2025-07-01,开盘,收盘,最高,最低,..."，第 3 列是收盘。
func ParseCloseKlines(code string, klines []string) ([]contracts.Observation, error) {
	obs := make([]contracts.Observation, 0, len(klines))
	for _, line := range klines {
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			continue
		}

		date, err := time.Parse("2006-01-02", fields[0])
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}

		obs = append(obs, contracts.Observation{
			SeriesKey: code,
			Date:      contracts.DateOf(date),
			Value:     value,
			Source:    SourceName,
		})
	}
	if len(klines) > 0 && len(obs) == 0 {
		return nil, fmt.Errorf("no parsable rows out of %d", len(klines))
	}
	return obs, nil
}

// boardHrefPattern matches board detail links like /bk/90.BK0428.html
var boardHrefPattern = regexp.MustCompile(`90\.(BK\d{4})`)

// ParseBoardHTML extracts industry boards from the board center page.
// 兜底路径：push2 接口被限流时从页面链接里恢复 (代码, 名称) 对。
func ParseBoardHTML(body []byte) ([]contracts.SectorIndustry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	seen := make(map[string]bool)
	var industries []contracts.SectorIndustry
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		m := boardHrefPattern.FindStringSubmatch(href)
		if m == nil {
			return
		}

		code := m[1]
		name := strings.TrimSpace(sel.Text())
		if name == "" || seen[code] {
			return
		}
		seen[code] = true
		industries = append(industries, contracts.SectorIndustry{Code: code, Name: name})
	})

	if len(industries) == 0 {
		return nil, fmt.Errorf("no board links found")
	}
	return industries, nil
}
