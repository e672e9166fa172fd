package notification

import (
	"Prazo-Certo/entities"
	"Prazo-Certo/internal/utils/mailing"
	"Prazo-Certo/pkg/product"
	"Prazo-Certo/pkg/storage"
	"bytes"
	"context"
	"fmt"
	"html/template"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

var digestTemplate = template.Must(template.New("digest").Parse(`<h2>Olá, {{.Username}}!</h2>
<p>Estes produtos estão perto do fim da validade:</p>
<ul>
{{range .Items}}<li><strong>{{.Name}}</strong> ({{.When}}, {{.Date}})</li>
{{end}}</ul>
<p>Prazo Certo</p>`))

type (
	Config struct {
		Interval time.Duration
		Location *time.Location
		Clock    func() time.Time
		Logger   zerolog.Logger
	}

	// SweepReport summarizes one pass over every user.
	SweepReport struct {
		Users       int `json:"users"`
		Emails      int `json:"emails"`
		Reminded    int `json:"reminded"`
		Replenished int `json:"replenished"`
		Failures    int `json:"failures"`
	}

	// Notifier mails one expiry digest per user and runs the auto-replenish
	// sweep. A product is reminded once, when its distance to expiry in days
	// is one of the user's notification days.
	Notifier struct {
		store  storage.Store
		mailer mailing.Mailer
		config Config
	}

	digestItem struct {
		Name string
		When string
		Date string
	}
)

func NewNotifier(store storage.Store, mailer mailing.Mailer, config Config) *Notifier {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	return &Notifier{
		store:  store,
		mailer: mailer,
		config: config,
	}
}

// Run sweeps immediately and then on every interval until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	ticker := time.NewTicker(n.config.Interval)
	defer ticker.Stop()

	for {
		report, err := n.Sweep(ctx)
		if err != nil {
			n.config.Logger.Error().Err(err).Msg("notification sweep failed")
		} else {
			n.config.Logger.Info().
				Int("users", report.Users).
				Int("emails", report.Emails).
				Int("reminded", report.Reminded).
				Int("replenished", report.Replenished).
				Int("failures", report.Failures).
				Msg("notification sweep finished")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (n *Notifier) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	users, err := n.store.ListUsers(ctx)
	if err != nil {
		return report, err
	}

	for _, u := range users {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Users++

		replenished, err := n.store.ProcessAutoReplenish(ctx, u.ID)
		if err != nil {
			report.Failures++
			n.config.Logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("auto replenish failed")
		}
		report.Replenished += replenished

		reminded, err := n.remind(ctx, u)
		if err != nil {
			report.Failures++
			n.config.Logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("expiry reminder failed")
			continue
		}
		if reminded > 0 {
			report.Emails++
			report.Reminded += reminded
		}
	}
	return report, nil
}

// Due returns the active, not yet notified products whose day distance to
// expiry is one of days.
func Due(products []*entities.Product, days []int, now time.Time) []*entities.Product {
	var due []*entities.Product
	for _, p := range products {
		if !p.Active() || p.Notified {
			continue
		}
		if slices.Contains(days, product.DaysLeft(p.ExpirationDate, now)) {
			due = append(due, p)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].ExpirationDate.Before(due[j].ExpirationDate)
	})
	return due
}

func (n *Notifier) remind(ctx context.Context, u *entities.User) (int, error) {
	settings := u.Settings.Data()
	if settings.Email == "" || n.mailer == nil || len(settings.NotificationDays) == 0 {
		return 0, nil
	}

	products, err := n.store.GetProductsByUserID(ctx, u.ID, storage.ProductFilter{Status: storage.StatusActive})
	if err != nil {
		return 0, err
	}
	now := n.config.Clock().In(n.config.Location)
	due := Due(products, settings.NotificationDays, now)
	if len(due) == 0 {
		return 0, nil
	}

	body, err := renderDigest(u.Username, due, now)
	if err != nil {
		return 0, err
	}
	subject := fmt.Sprintf("Prazo Certo: %d produto(s) perto da validade", len(due))
	if err := n.mailer.Send(settings.Email, subject, body); err != nil {
		return 0, err
	}

	for _, p := range due {
		if _, err := n.store.MarkProductNotified(ctx, p.ID); err != nil {
			return 0, err
		}
	}
	return len(due), nil
}

func renderDigest(username string, products []*entities.Product, now time.Time) (string, error) {
	items := make([]digestItem, 0, len(products))
	for _, p := range products {
		items = append(items, digestItem{
			Name: p.Name,
			When: describeDays(product.DaysLeft(p.ExpirationDate, now)),
			Date: p.ExpirationDate.In(now.Location()).Format("02/01/2006"),
		})
	}

	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, struct {
		Username string
		Items    []digestItem
	}{username, items})
	return buf.String(), err
}

func describeDays(days int) string {
	switch days {
	case 0:
		return "vence hoje"
	case 1:
		return "vence amanhã"
	default:
		return fmt.Sprintf("vence em %d dias", days)
	}
}
