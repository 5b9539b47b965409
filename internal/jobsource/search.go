package jobsource

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/jobs"
)

const (
	SearchPath = "/jobs"
)

type SearchParams struct {
	Text     string `mapstructure:"text"`
	Location string `mapstructure:"location"`
	// param is a custom tag for reflect. Please see buildParams.
	Skills   []string `mapstructure:"skills" param:"skill"`
	Remote   bool     `mapstructure:"remote"`
	PerPage  int      `mapstructure:"per-page" param:"per_page"`
	MaxPages int      `mapstructure:"max-pages" param:"-"`
}

func (c *Client) search(ctx context.Context, params *SearchParams) (*jobs.Postings, error) {
	if params == nil {
		params = &SearchParams{}
	}

	// Set per_page max as possible. It should be faster.
	if params.PerPage == 0 {
		params.PerPage = defaultPerPage
	}

	q := buildParams(params)
	searchURL := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, err := c.GetItems(ctx, searchURL, q, params.MaxPages)
	if err != nil {
		return nil, err
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			c.logger.Warn("skipping malformed feed item", zap.String("type", fmt.Sprintf("%T", item)))
			continue
		}
		records = append(records, record)
	}

	return jobs.Decode(records)
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		// Our custom tag is using here.
		key := field.Tag.Get("param")
		if key == "-" {
			continue
		}
		if key == "" {
			// Failover to the config tag if our tag does not exist.
			key = field.Tag.Get("mapstructure")
		}

		value := reflect.ValueOf(params).Elem().Field(field.Index[0])
		switch v := value.Interface().(type) {
		case []string:
			for _, s := range v {
				q.Add(key, s)
			}
		case bool:
			if v {
				q.Set(key, strconv.FormatBool(v))
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}
