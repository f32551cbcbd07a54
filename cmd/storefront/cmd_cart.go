// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/GoMarketplace/pkg/validation"
	"github.com/AleutianAI/GoMarketplace/services/cart/datatypes"
	"github.com/AleutianAI/GoMarketplace/services/cart/tui"
	"github.com/AleutianAI/GoMarketplace/services/cart/view"
)

// isTerminal reports whether v is a terminal file.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// withLoadedApp opens the app, loads the cart synchronously, runs fn and
// closes the app, which flushes every write fn caused.
func withLoadedApp(cmd *cobra.Command, opts *rootOptions, fn func(a *app) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(opts, cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.close(context.WithoutCancel(ctx)))
	}()

	if err := a.store.Load(ctx); err != nil {
		return err
	}
	return fn(a)
}

// =============================================================================
// cart show
// =============================================================================

func runCartShow(cmd *cobra.Command, opts *rootOptions, plain bool) error {
	if plain || !isTerminal(cmd.OutOrStdout()) {
		return withLoadedApp(cmd, opts, func(a *app) error {
			printScreen(cmd.OutOrStdout(), a.view.Screen())
			return nil
		})
	}
	return runCartScreen(cmd, opts)
}

// runCartScreen opens the interactive screen. The load runs in the
// background; the screen shows the empty cart until the subscription
// delivers the loaded list.
func runCartScreen(cmd *cobra.Command, opts *rootOptions) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(opts, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.close(context.WithoutCancel(ctx)))
	}()

	updates, cancel := a.store.Subscribe()
	defer cancel()
	a.store.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	screenCtx, stopServer := context.WithCancel(gctx)

	if a.cfg.Metrics.Addr != "" {
		server := newMetricsServer(a.cfg.Metrics.Addr, a.store, a.logger.Slog())
		g.Go(func() error {
			return server.Run(screenCtx)
		})
	}

	g.Go(func() error {
		defer stopServer()
		program := tea.NewProgram(
			tui.NewCartModel(a.view, updates),
			tea.WithContext(screenCtx),
			tea.WithAltScreen(),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		)
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("cart screen: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// printScreen writes the plain-text rendition of the cart screen.
func printScreen(w io.Writer, screen view.Screen) {
	if screen.Empty() {
		fmt.Fprintln(w, "Your cart is empty.")
	}
	for _, line := range screen.Lines {
		fmt.Fprintf(w, "%-12s %-28s %14s x%-4d %14s\n",
			line.ID, line.Title, line.PriceText, line.Quantity, line.SubtotalText)
	}
	fmt.Fprintf(w, "Items: %d\n", screen.ItemCount)
	fmt.Fprintf(w, "Subtotal: %s\n", screen.SubtotalText)
}

// =============================================================================
// cart add
// =============================================================================

func runCartAdd(cmd *cobra.Command, opts *rootOptions, add *addOptions) error {
	if strings.TrimSpace(add.id) == "" {
		if !isTerminal(cmd.InOrStdin()) {
			return errors.New("--id is required when not running on a terminal")
		}
		if err := promptProduct(cmd.Context(), add); err != nil {
			return err
		}
	}

	id, err := validation.SanitizeProductID(add.id)
	if err != nil {
		return err
	}
	product := datatypes.Product{
		ID:       id,
		Title:    add.title,
		ImageURL: add.image,
		Price:    add.price,
	}

	return withLoadedApp(cmd, opts, func(a *app) error {
		if err := a.store.AddToCart(product); err != nil {
			return err
		}
		a.logger.Debug("product added", slog.String("id", product.ID))
		printScreen(cmd.OutOrStdout(), a.view.Screen())
		return nil
	})
}

// promptProduct fills add from an interactive form.
func promptProduct(ctx context.Context, add *addOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	priceText := ""
	if add.price != 0 {
		priceText = strconv.FormatFloat(add.price, 'f', -1, 64)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Product id").
				Value(&add.id).
				Validate(validation.ValidateProductID),
			huh.NewInput().
				Title("Title").
				Value(&add.title),
			huh.NewInput().
				Title("Unit price").
				Value(&priceText).
				Validate(func(s string) error {
					_, err := parsePrice(s)
					return err
				}),
			huh.NewInput().
				Title("Image URL").
				Value(&add.image),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return err
	}

	price, err := parsePrice(priceText)
	if err != nil {
		return err
	}
	add.price = price
	return nil
}

// parsePrice accepts "10", "10.5" and "10,5".
func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q is not a number", s)
	}
	if v < 0 {
		return 0, errors.New("price must not be negative")
	}
	return v, nil
}

// =============================================================================
// cart inc / dec
// =============================================================================

func runCartStep(cmd *cobra.Command, opts *rootOptions, rawID string, up bool) error {
	id, err := validation.SanitizeProductID(rawID)
	if err != nil {
		return err
	}
	return withLoadedApp(cmd, opts, func(a *app) error {
		var err error
		if up {
			err = a.view.HandleIncrement(id)
		} else {
			err = a.view.HandleDecrement(id)
		}
		if err != nil {
			return err
		}
		printScreen(cmd.OutOrStdout(), a.view.Screen())
		return nil
	})
}

// =============================================================================
// cart clear-storage
// =============================================================================

// runCartClearStorage wipes the KV directly. It does not go through the
// store, which never clears storage on its own unless configured to.
func runCartClearStorage(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(opts, cmd.ErrOrStderr(), false)
	if err != nil {
		return err
	}
	clearErr := a.kv.Clear(ctx)
	if clearErr == nil {
		a.logger.Info("cart storage cleared", slog.String("driver", a.cfg.Storage.Driver))
		fmt.Fprintln(cmd.OutOrStdout(), "Cart storage cleared.")
	}
	return errors.Join(clearErr, a.close(context.WithoutCancel(ctx)))
}
