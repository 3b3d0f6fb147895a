package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"scoperag/internal/domain"
)

var (
	agentScopes      []string
	agentDescription string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage the agent registry",
}

var agentRegisterCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a new agent",
	Long: `Create an agent record with a name and scope set. Registration carries
no credentials; authentication is handled outside this tool.

Example:
  scoperag agent register alice --scopes read,write --description "ingest bot"`,
	Args: cobra.ExactArgs(1),
	RunE: runAgentRegister,
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	RunE:  runAgentList,
}

var agentDeactivateCmd = &cobra.Command{
	Use:   "deactivate <name>",
	Short: "Deactivate an agent without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgentDeactivate,
}

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.AddCommand(agentRegisterCmd, agentListCmd, agentDeactivateCmd)
	agentRegisterCmd.Flags().StringSliceVar(&agentScopes, "scopes", nil, "scopes held by the agent")
	agentRegisterCmd.Flags().StringVar(&agentDescription, "description", "", "what this agent does")
}

func runAgentRegister(cmd *cobra.Command, args []string) error {
	e, err := openEnv(GetConfig())
	if err != nil {
		return err
	}
	defer e.Close()

	agent := domain.Agent{
		ID:          uuid.NewString(),
		Name:        args[0],
		Scopes:      agentScopes,
		Description: agentDescription,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.store.PutAgent(agent); err != nil {
		return err
	}

	fmt.Printf("Registered agent %q\n", agent.Name)
	fmt.Printf("  ID:     %s\n", agent.ID)
	fmt.Printf("  Scopes: %s\n", strings.Join(agent.Scopes, ","))
	return nil
}

func runAgentList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(GetConfig())
	if err != nil {
		return err
	}
	defer e.Close()

	agents, err := e.store.ListAgents()
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("No registered agents.")
		return nil
	}

	for _, a := range agents {
		state := "active"
		if !a.Active {
			state = "deactivated"
		}
		scopes := strings.Join(a.Scopes, ",")
		if scopes == "" {
			scopes = "-"
		}
		fmt.Printf("%s  %-16s scopes=%-20s %s\n", a.ID, a.Name, scopes, state)
	}
	return nil
}

func runAgentDeactivate(cmd *cobra.Command, args []string) error {
	e, err := openEnv(GetConfig())
	if err != nil {
		return err
	}
	defer e.Close()

	agent, err := e.store.GetAgentByName(args[0])
	if err != nil {
		return err
	}
	agent.Active = false
	if err := e.store.PutAgent(agent); err != nil {
		return err
	}

	fmt.Printf("Deactivated agent %q\n", agent.Name)
	return nil
}
