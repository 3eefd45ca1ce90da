package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/docmaster/docmaster/client"
	"github.com/docmaster/docmaster/core/iup"
)

func (cli *commandLine) login(ctx context.Context, uname, pwd string) error {
	usr, err := cli.gw.Login(ctx, uname, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Вы вошли как %s (%s)\n", usr.FullName(), usr.Role.Label())
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	session := cli.gw.Session()
	if err := session.Init(ctx, cli.gw); err != nil {
		return err
	}
	usr, ok := session.User()
	if !ok {
		fmt.Fprintf(cli.out, "Вход не выполнен, страница: %s\n", client.LandingRoute(nil))
		return nil
	}
	fmt.Fprintf(cli.out, "%s <%s>, %s, страница: %s\n", usr.FullName(), usr.Email, usr.Role.Label(), client.LandingRoute(&usr))
	return nil
}

func (cli *commandLine) printPlan(plan iup.Plan) {
	fmt.Fprintf(cli.out, "%s, %d/%d, %s, %d%%\n",
		plan.Student.FullName, plan.Year, plan.Year+1, plan.OverallStatus.Label(), plan.Progress)
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	for _, s := range plan.Stages {
		marker := " "
		if s.StageNumber == plan.CurrentStage {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %d\t%s\t%s\n", marker, s.StageNumber, s.Title, s.Status.Label())
		if h := s.SortedHistory(); len(h) > 0 && h[0].Comment != "" {
			fmt.Fprintf(w, "\t\t%s\n", h[0].Comment)
		}
	}
	_ = w.Flush()
}

func (cli *commandLine) showPlan(ctx context.Context, id string) error {
	view, err := client.OpenPlan(ctx, cli.gw, id)
	if err != nil {
		return err
	}
	cli.printPlan(view.Plan)
	return nil
}

func (cli *commandLine) listPlans(ctx context.Context, filter iup.QueryFilter) error {
	plans, err := cli.gw.Plans(ctx, filter)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	for _, p := range plans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\n", p.ID, p.Student.FullName, stageLabel(p.CurrentStage), p.OverallStatus.Label(), p.Progress)
	}
	return w.Flush()
}

func (cli *commandLine) saveTopic(ctx context.Context, id string, n int, topic iup.Topic, submit bool) error {
	view, err := client.OpenPlan(ctx, cli.gw, id)
	if err != nil {
		return err
	}
	if submit {
		err = view.SubmitTopic(ctx, n, topic)
	} else {
		err = view.SaveTopic(ctx, n, topic)
	}
	if err != nil {
		return err
	}
	cli.printPlan(view.Plan)
	return nil
}

func (cli *commandLine) saveText(ctx context.Context, id string, n int, text string, submit bool) error {
	view, err := client.OpenPlan(ctx, cli.gw, id)
	if err != nil {
		return err
	}
	if err = view.SaveText(ctx, n, text); err != nil {
		return err
	}
	if submit {
		if err = view.Submit(ctx, n); err != nil {
			return err
		}
	}
	cli.printPlan(view.Plan)
	return nil
}

func (cli *commandLine) stageAction(ctx context.Context, id string, n int, action iup.Action, comment string) error {
	view, err := client.OpenPlan(ctx, cli.gw, id)
	if err != nil {
		return err
	}
	switch action {
	case iup.ActionSubmit:
		err = view.Submit(ctx, n)
	case iup.ActionApprove:
		err = view.Approve(ctx, n, comment)
	case iup.ActionReview:
		err = view.TakeReview(ctx, n)
	case iup.ActionReject:
		err = view.Reject(ctx, n, comment)
	case iup.ActionResume:
		err = view.Resume(ctx, n)
	case iup.ActionReceipt:
		err = view.ConfirmReceipt(ctx, n)
	default:
		return errHelp
	}
	if err != nil {
		return err
	}
	cli.printPlan(view.Plan)
	return nil
}

func (cli *commandLine) application(ctx context.Context, id string) error {
	doc, err := cli.gw.Application(ctx, id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, doc)
	return err
}
