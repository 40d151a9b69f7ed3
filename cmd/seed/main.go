// Package main populates a running linernotes server with demo data. Profile
// rows belong to the auth subsystem and are written with SQL; everything else
// goes through the public API using locally minted session tokens.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/linernotes/linernotes/internal/auth"
	"github.com/linernotes/linernotes/internal/config"
	pkgconfig "github.com/linernotes/linernotes/pkg/config"
	"github.com/linernotes/linernotes/pkg/database"
	"github.com/linernotes/linernotes/pkg/httpclient"
	"github.com/linernotes/linernotes/pkg/logger"
	"github.com/linernotes/linernotes/pkg/slug"
)

type seedConfig struct {
	APIURL string `env:"API_URL" envDefault:"http://localhost:8080"`
	Seed   uint64 `env:"RANDOM_SEED" envDefault:"42"`
}

type userDef struct {
	displayName string
	id          string // handle, populated before insert
	token       string
}

type albumDef struct {
	name    string
	artists []string
}

func (a albumDef) id() string {
	return slug.Generate(a.artists[0] + " " + a.name)
}

var users = []*userDef{
	{displayName: "Ada Lovelace"},
	{displayName: "Björn Ulvaeus"},
	{displayName: "Nina Simone Fan"},
	{displayName: "Zoë Kravitz"},
	{displayName: "Miles Ahead"},
}

var albums = []albumDef{
	{"Blue", []string{"Joni Mitchell"}},
	{"Kind of Blue", []string{"Miles Davis"}},
	{"Ágætis byrjun", []string{"Sigur Rós"}},
	{"OK Computer", []string{"Radiohead"}},
	{"Homogenic", []string{"Björk"}},
	{"Bookends", []string{"Simon & Garfunkel"}},
}

var reviewBodies = []string{
	"Every track earns its place; the sequencing alone is worth the listen.",
	"Took a few spins to click, and now I cannot stop coming back to it.",
	"Gorgeous production, though the second half drifts a little.",
	"A record that sounds like a room you want to live in.",
	"Overrated in places but the highs are genuinely untouchable.",
}

// api is a thin JSON client for the linernotes HTTP surface.
type api struct {
	base   string
	client *httpclient.Client
}

func (a *api) call(ctx context.Context, method, path, token string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return envelope.Data, nil
}

func main() {
	log := logger.New("linernotes-seed", "info")
	if err := run(log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var seedCfg seedConfig
	if err := pkgconfig.Load(&seedCfg, pkgconfig.WithPrefix("SEED_")); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(seedCfg.Seed, seedCfg.Seed))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = 10 * time.Second
	client := &api{base: seedCfg.APIURL, client: httpclient.New(httpCfg)}
	sessions := auth.NewSessionTokens(cfg.JWTSecret, time.Hour)

	// ---------------------------------------------------------------
	// 1. Profiles via direct SQL, tokens minted locally
	// ---------------------------------------------------------------
	log.Info("seeding profiles", slog.Int("count", len(users)))
	for _, u := range users {
		u.id = slug.Handle(u.displayName)
		_, err := pool.Exec(ctx,
			`INSERT INTO users (id, display_name, handle)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO NOTHING`,
			u.id, u.displayName, u.id,
		)
		if err != nil {
			return fmt.Errorf("insert user %q: %w", u.id, err)
		}

		u.token, err = sessions.Issue(u.id, u.id+"@linernotes.test", "user")
		if err != nil {
			return fmt.Errorf("mint token for %q: %w", u.id, err)
		}
	}

	// ---------------------------------------------------------------
	// 2. Follow graph: everyone follows the next two users
	// ---------------------------------------------------------------
	for i, u := range users {
		for step := 1; step <= 2; step++ {
			followee := users[(i+step)%len(users)]
			if _, err := client.call(ctx, http.MethodPut, "/api/v1/users/"+followee.id+"/follow", u.token, nil); err != nil {
				log.Warn("follow failed", slog.String("follower", u.id), slog.String("error", err.Error()))
			}
		}
	}

	// ---------------------------------------------------------------
	// 3. Reviews, library saves
	// ---------------------------------------------------------------
	var reviewIDs []string
	for _, u := range users {
		for _, idx := range rng.Perm(len(albums))[:3] {
			album := albums[idx]
			data, err := client.call(ctx, http.MethodPost, "/api/v1/reviews", u.token, map[string]any{
				"album_id": album.id(),
				"rating":   1 + rng.IntN(5),
				"body":     reviewBodies[rng.IntN(len(reviewBodies))],
				"album":    map[string]any{"name": album.name, "artists": album.artists},
			})
			if err != nil {
				log.Warn("review failed", slog.String("author", u.id), slog.String("error", err.Error()))
				continue
			}

			var created struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(data, &created); err == nil {
				reviewIDs = append(reviewIDs, created.ID)
			}

			if _, err := client.call(ctx, http.MethodPut, "/api/v1/library/"+album.id(), u.token, map[string]any{
				"name":    album.name,
				"artists": album.artists,
			}); err != nil {
				log.Warn("library save failed", slog.String("user", u.id), slog.String("error", err.Error()))
			}
		}
	}
	log.Info("reviews seeded", slog.Int("count", len(reviewIDs)))

	// ---------------------------------------------------------------
	// 4. Likes and a short thread on each review
	// ---------------------------------------------------------------
	for _, reviewID := range reviewIDs {
		liker := users[rng.IntN(len(users))]
		if _, err := client.call(ctx, http.MethodPut, "/api/v1/likes/review/"+reviewID, liker.token, nil); err != nil {
			log.Warn("like failed", slog.String("review_id", reviewID), slog.String("error", err.Error()))
		}

		commenter := users[rng.IntN(len(users))]
		data, err := client.call(ctx, http.MethodPost, "/api/v1/reviews/"+reviewID+"/comments", commenter.token, map[string]any{
			"body": "Completely agree about the closing track.",
		})
		if err != nil {
			log.Warn("comment failed", slog.String("review_id", reviewID), slog.String("error", err.Error()))
			continue
		}

		var comment struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &comment); err != nil {
			continue
		}
		replier := users[rng.IntN(len(users))]
		if _, err := client.call(ctx, http.MethodPost, "/api/v1/reviews/"+reviewID+"/comments", replier.token, map[string]any{
			"body":      "Have you heard the live version?",
			"parent_id": comment.ID,
		}); err != nil {
			log.Warn("reply failed", slog.String("review_id", reviewID), slog.String("error", err.Error()))
		}
	}

	log.Info("seed complete",
		slog.Int("users", len(users)),
		slog.Int("reviews", len(reviewIDs)),
	)
	return nil
}
