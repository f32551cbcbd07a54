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
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath  string
	logLevel    string
	metricsAddr string
}

// addOptions holds the flags of "cart add".
type addOptions struct {
	id    string
	title string
	price float64
	image string
}

// newRootCmd builds the command tree. Each call returns a fresh tree so
// flag state never leaks between executions.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "A cli to manage the GoMarketplace shopping cart",
		Long: `storefront reads and changes the cart that the marketplace keeps
in local storage. Changes are written through the same store the
application uses, so ordering and persistence rules are identical.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.gomarketplace/storefront.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address while the cart screen is open")

	// --- Cart ---
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the persisted cart",
	}

	var plain bool
	cartShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the cart lines, item count and subtotal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartShow(cmd, opts, plain) // Defined in cmd_cart.go
		},
	}
	cartShowCmd.Flags().BoolVar(&plain, "plain", false, "print a summary instead of opening the interactive screen")

	add := &addOptions{}
	cartAddCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product, or one more unit of it if already in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartAdd(cmd, opts, add) // Defined in cmd_cart.go
		},
	}
	cartAddCmd.Flags().StringVar(&add.id, "id", "", "product id (prompted for on a terminal when omitted)")
	cartAddCmd.Flags().StringVar(&add.title, "title", "", "product title")
	cartAddCmd.Flags().Float64Var(&add.price, "price", 0, "unit price")
	cartAddCmd.Flags().StringVar(&add.image, "image", "", "product image URL")

	cartIncCmd := &cobra.Command{
		Use:   "inc [id]",
		Short: "Add one unit to the line with this id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartStep(cmd, opts, args[0], true) // Defined in cmd_cart.go
		},
	}

	cartDecCmd := &cobra.Command{
		Use:   "dec [id]",
		Short: "Remove one unit from the line with this id (never below 1)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartStep(cmd, opts, args[0], false) // Defined in cmd_cart.go
		},
	}

	cartClearCmd := &cobra.Command{
		Use:   "clear-storage",
		Short: "DANGER: wipe everything in the cart's local storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCartClearStorage(cmd, opts) // Defined in cmd_cart.go
		},
	}

	cartCmd.AddCommand(cartShowCmd, cartAddCmd, cartIncCmd, cartDecCmd, cartClearCmd)
	rootCmd.AddCommand(cartCmd)
	return rootCmd
}
