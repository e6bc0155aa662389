/*
Copyright 2025 Stashbook Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

// reconcileCommands returns the command that recomputes last_tx_date for
// every account from its surviving transaction history.
func reconcileCommands(app *appInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "recompute account activity dates from transaction history",
		Run: func(cmd *cobra.Command, args []string) {
			count, err := app.service.ReconcileLastTxDates(context.Background())
			if err != nil {
				log.Printf("Reconciliation finished with errors: %v", err)
			}
			fmt.Printf("Reconciled %d accounts\n", count)
		},
	}

	return cmd
}
