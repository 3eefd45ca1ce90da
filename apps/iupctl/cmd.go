package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"syscall"

	"golang.org/x/term"

	"github.com/docmaster/docmaster/client"
	"github.com/docmaster/docmaster/core/iup"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	gw  *client.Gateway
	out io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username USERNAME - sign in, the password is prompted next")
	fmt.Fprintln(cli.out, "  logout - forget the session")
	fmt.Fprintln(cli.out, "  whoami - show the signed-in user and its home page")
	fmt.Fprintln(cli.out, "  plan [-id ID] - show a study plan, your own by default")
	fmt.Fprintln(cli.out, "  plans [-status STATUS] [-search TEXT] - list the plans you supervise or administer")
	fmt.Fprintln(cli.out, "  topic [-id ID] [-stage N] [-submit] -kz TEXT -ru TEXT -en TEXT - save or submit the dissertation topic")
	fmt.Fprintln(cli.out, "  text [-id ID] -stage N [-submit] TEXT - save or submit the content of a stage")
	fmt.Fprintln(cli.out, "  ACTION -id ID -stage N [-comment TEXT] - one of submit, approve, review, reject, resume, receipt")
	fmt.Fprintln(cli.out, "  application -id ID - print the application document")
}

func promptPassword(cli *commandLine, cmd *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

// stageFlags registers the flags shared by the stage commands.
func stageFlags(cmd *flag.FlagSet, defaultStage int) (id *string, stage *int) {
	return cmd.String("id", "", "The plan ID, your own plan by default."),
		cmd.Int("stage", defaultStage, "The stage number.")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginUname := loginCmd.String("username", "", "The username or email.")

	planCmd := flag.NewFlagSet("plan", flag.ContinueOnError)
	planID := planCmd.String("id", "", "The plan ID, your own plan by default.")

	plansCmd := flag.NewFlagSet("plans", flag.ContinueOnError)
	plansStatus := plansCmd.String("status", "", "Only the plans with this overall status.")
	plansSearch := plansCmd.String("search", "", "Only the students matching this text.")

	topicCmd := flag.NewFlagSet("topic", flag.ContinueOnError)
	topicID, topicStage := stageFlags(topicCmd, 1)
	topicSubmit := topicCmd.Bool("submit", false, "Submit the topic for review.")
	topicKz := topicCmd.String("kz", "", "The topic in Kazakh.")
	topicRu := topicCmd.String("ru", "", "The topic in Russian.")
	topicEn := topicCmd.String("en", "", "The topic in English.")

	textCmd := flag.NewFlagSet("text", flag.ContinueOnError)
	textID, textStage := stageFlags(textCmd, 0)
	textSubmit := textCmd.Bool("submit", false, "Submit the stage for review.")

	actionCmd := flag.NewFlagSet(args[1], flag.ContinueOnError)
	actionID, actionStage := stageFlags(actionCmd, 0)
	actionComment := actionCmd.String("comment", "", "The comment, required to reject.")

	appCmd := flag.NewFlagSet("application", flag.ContinueOnError)
	appID := appCmd.String("id", "", "The plan ID.")

	for _, cmd := range []*flag.FlagSet{loginCmd, planCmd, plansCmd, topicCmd, textCmd, actionCmd, appCmd} {
		cmd.SetOutput(cli.out)
	}

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(cli, loginCmd)
		if err != nil {
			return err
		}
		return cli.login(ctx, *loginUname, pwd)
	case "logout":
		return cli.gw.Logout()
	case "whoami":
		return cli.whoami(ctx)
	case "plan":
		if err := planCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.showPlan(ctx, *planID)
	case "plans":
		if err := plansCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.listPlans(ctx, iup.QueryFilter{Status: iup.Status(*plansStatus), Search: *plansSearch})
	case "topic":
		if err := topicCmd.Parse(args[2:]); err != nil {
			return err
		}
		topic := iup.Topic{Kazakh: *topicKz, Russian: *topicRu, English: *topicEn}
		return cli.saveTopic(ctx, *topicID, *topicStage, topic, *topicSubmit)
	case "text":
		if err := textCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *textStage == 0 || textCmd.NArg() == 0 {
			textCmd.Usage()
			return errHelp
		}
		return cli.saveText(ctx, *textID, *textStage, textCmd.Arg(0), *textSubmit)
	case "submit", "approve", "review", "reject", "resume", "receipt":
		if err := actionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *actionStage == 0 {
			actionCmd.Usage()
			return errHelp
		}
		return cli.stageAction(ctx, *actionID, *actionStage, iup.Action(args[1]), *actionComment)
	case "application":
		if err := appCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *appID == "" {
			appCmd.Usage()
			return errHelp
		}
		return cli.application(ctx, *appID)
	default:
		cli.printUsage()
		return errHelp
	}
}

func stageLabel(n int) string {
	return "этап " + strconv.Itoa(n)
}
