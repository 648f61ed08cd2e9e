package adm

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var admCmd = &cobra.Command{
	Use:   "adm",
	Short: "Administrative commands to inspect single artifacts.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			if err := cmd.Help(); err != nil {
				log.Errorf("error loading help(): %v", err)
			}
		}
	},
}

func init() {
	admCmd.AddCommand(parseJUnitCmd)
	admCmd.AddCommand(parseSarifCmd)
	admCmd.AddCommand(parsePlaywrightCmd)
}

func NewCmdAdm() *cobra.Command {
	return admCmd
}
