package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"

	"github.com/verte-zerg/statsheet/internal/model"
)

const userAgent = "statsheet"

const basicInfoQuery = `query ($name: String!) {
	unit(name: $name) {
		id
		name
		rarity
	}
}`

// GraphQL fetches character data from a remote GraphQL endpoint.
type GraphQL struct {
	client   *graphql.Client
	endpoint string
}

// NewGraphQL returns a client for endpoint. A zero timeout disables the
// per-request deadline.
func NewGraphQL(endpoint string, timeout time.Duration) *GraphQL {
	httpClient := &http.Client{Timeout: timeout}
	return &GraphQL{
		client:   graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient)),
		endpoint: endpoint,
	}
}

// Endpoint returns the configured URL.
func (g *GraphQL) Endpoint() string {
	return g.endpoint
}

// Source identifies the endpoint for cache keys.
func (g *GraphQL) Source() string {
	return "graphql:" + g.endpoint
}

// GetBasicCharacterInfo implements Transport.
func (g *GraphQL) GetBasicCharacterInfo(ctx context.Context, name string) (*model.BasicCharacterInfo, error) {
	req := g.newRequest(basicInfoQuery)
	req.Var("name", name)

	var resp struct {
		Unit *model.BasicCharacterInfo `json:"unit"`
	}
	if err := g.client.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query unit %q: %w", name, err)
	}
	return resp.Unit, nil
}

// GetCharacterStat implements Transport.
func (g *GraphQL) GetCharacterStat(ctx context.Context, opts model.CharacterStatOptions) (*model.CharacterUnit, error) {
	req := g.newRequest(characterStatQuery)
	req.Var("name", opts.Name)
	req.Var("rarity", opts.Rarity)
	req.Var("rank", opts.Rank)

	var resp struct {
		Unit *model.CharacterUnit `json:"unit"`
	}
	if err := g.client.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query stats for %q: %w", opts.Name, err)
	}
	return resp.Unit, nil
}

func (g *GraphQL) newRequest(query string) *graphql.Request {
	req := graphql.NewRequest(query)
	req.Header.Set("User-Agent", userAgent)
	return req
}

var characterStatQuery = buildCharacterStatQuery()

func buildCharacterStatQuery() string {
	fields := statSelection()
	var b strings.Builder
	b.WriteString("query ($name: String!, $rarity: Int!, $rank: Int!) {\n")
	b.WriteString("\tunit(name: $name, rarity: $rarity, rank: $rank) {\n")
	b.WriteString("\t\tid\n\t\tname\n")
	b.WriteString("\t\tstat {\n\t\t\tbase " + fields + "\n\t\t\tgrowthRate " + fields + "\n\t\t}\n")
	b.WriteString("\t\tstatByRank " + fields + "\n")
	b.WriteString("\t\tequipments {\n\t\t\tid\n\t\t\tname\n\t\t\tpromotionLevel\n\t\t\trequiredLevel\n")
	b.WriteString("\t\t\tstat " + fields + "\n\t\t\tgrowthRate " + fields + "\n\t\t}\n")
	b.WriteString("\t}\n}")
	return b.String()
}

func statSelection() string {
	keys := make([]string, 0, model.StatFieldCount)
	for _, f := range model.StatFields() {
		keys = append(keys, f.Key())
	}
	return "{ " + strings.Join(keys, " ") + " }"
}
