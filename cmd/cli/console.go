package main

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"Prazo-Certo/pkg/notification"
	"Prazo-Certo/pkg/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

var errExit = errors.New("exit requested")

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

// Console runs admin commands against the storage proxy.
type Console struct {
	proxy    *storage.Proxy
	notifier *notification.Notifier
	out      io.Writer
	commands map[string]command
}

func NewConsole(proxy *storage.Proxy, notifier *notification.Notifier, out io.Writer) *Console {
	c := &Console{proxy: proxy, notifier: notifier, out: out}
	c.commands = map[string]command{
		"status":    {"status", c.status},
		"provider":  {"provider <postgres|firebase>", c.provider},
		"migrate":   {"migrate", c.migrate},
		"users":     {"users", c.users},
		"products":  {"products <username> [active|consumed|discarded|all]", c.products},
		"expiring":  {"expiring <username> [days]", c.expiring},
		"summary":   {"summary <username>", c.summary},
		"stats":     {"stats <username>", c.stats},
		"replenish": {"replenish <username>", c.replenish},
		"sweep":     {"sweep", c.sweep},
		"help":      {"help", c.help},
		"exit":      {"exit", func(context.Context, []string) error { return errExit }},
	}
	return c
}

func (c *Console) Commands() []string {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	return names
}

// ParseArgs splits on spaces, keeping double-quoted runs together.
func ParseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, char := range input {
		switch {
		case char == '"':
			inQuotes = !inQuotes
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

func (c *Console) Execute(ctx context.Context, line string) error {
	args := ParseArgs(strings.TrimSpace(line))
	if len(args) == 0 {
		return nil
	}
	if args[0] == "quit" {
		return errExit
	}
	cmd, ok := c.commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
	return cmd.run(ctx, args[1:])
}

func (c *Console) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *Console) lookupUser(ctx context.Context, args []string) (*entities.User, error) {
	if len(args) == 0 {
		return nil, errors.New("username required")
	}
	u, err := c.proxy.GetUserByUsername(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q not found", args[0])
	}
	return u, nil
}

func (c *Console) status(context.Context, []string) error {
	return c.printJSON(c.proxy.Status())
}

func (c *Console) provider(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: " + c.commands["provider"].usage)
	}
	backend, err := storage.ParseBackend(args[0])
	if err != nil {
		return err
	}
	status, err := c.proxy.SetProvider(ctx, backend)
	if err != nil {
		return err
	}
	return c.printJSON(status)
}

func (c *Console) migrate(ctx context.Context, _ []string) error {
	report, err := c.proxy.MigrateToHierarchical(ctx)
	if err != nil {
		return err
	}
	return c.printJSON(report)
}

func (c *Console) users(ctx context.Context, _ []string) error {
	users, err := c.proxy.ListUsers(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Settings.Data().Email, u.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func (c *Console) printProducts(products []*entities.Product) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEXPIRES\tCATEGORY\tFLAGS")
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		var flags []string
		if p.Consumed {
			flags = append(flags, "consumed")
		}
		if p.Discarded {
			flags = append(flags, "discarded")
		}
		if p.AutoReplenish {
			flags = append(flags, "replenish")
		}
		if p.Notified {
			flags = append(flags, "notified")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.ExpirationDate.Format("2006-01-02"), category, strings.Join(flags, ","))
	}
	return w.Flush()
}

func (c *Console) products(ctx context.Context, args []string) error {
	u, err := c.lookupUser(ctx, args)
	if err != nil {
		return err
	}
	filter := storage.ProductFilter{}
	if len(args) > 1 {
		filter.Status = storage.ProductStatus(args[1])
	}
	products, err := c.proxy.GetProductsByUserID(ctx, u.ID, filter)
	if err != nil {
		return err
	}
	return c.printProducts(products)
}

func (c *Console) expiring(ctx context.Context, args []string) error {
	u, err := c.lookupUser(ctx, args)
	if err != nil {
		return err
	}
	days := 7
	if len(args) > 1 {
		if days, err = strconv.Atoi(args[1]); err != nil || days < 0 || days > domain.MaxExpiringDays {
			return fmt.Errorf("invalid days %q", args[1])
		}
	}
	products, err := c.proxy.GetExpiringProducts(ctx, u.ID, days)
	if err != nil {
		return err
	}
	return c.printProducts(products)
}

func (c *Console) summary(ctx context.Context, args []string) error {
	u, err := c.lookupUser(ctx, args)
	if err != nil {
		return err
	}
	summary, err := c.proxy.GetExpirationSummary(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.printJSON(summary)
}

func (c *Console) stats(ctx context.Context, args []string) error {
	u, err := c.lookupUser(ctx, args)
	if err != nil {
		return err
	}
	stats, err := c.proxy.GetConsumptionStats(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.printJSON(stats)
}

func (c *Console) replenish(ctx context.Context, args []string) error {
	u, err := c.lookupUser(ctx, args)
	if err != nil {
		return err
	}
	processed, err := c.proxy.ProcessAutoReplenish(ctx, u.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d product(s) added to the shopping list\n", processed)
	return nil
}

func (c *Console) sweep(ctx context.Context, _ []string) error {
	report, err := c.notifier.Sweep(ctx)
	if err != nil {
		return err
	}
	return c.printJSON(report)
}

func (c *Console) help(context.Context, []string) error {
	for _, name := range []string{"status", "provider", "migrate", "users", "products", "expiring", "summary", "stats", "replenish", "sweep", "exit"} {
		fmt.Fprintln(c.out, " ", c.commands[name].usage)
	}
	return nil
}
