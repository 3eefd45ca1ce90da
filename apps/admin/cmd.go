package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/docmaster/docmaster/core/iup"
	"github.com/docmaster/docmaster/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sql.DB
	usrSvc user.Service
	iupSvc iup.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  adduser -username USERNAME -email EMAIL -lastname NAME -firstname NAME [-role ROLE] [-program OP] [-supervisor ID]" +
		" - create a user, or reset an existing one")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  createplans - create the missing study plans of active students")
	fmt.Println("  digest - email the pending reviews to supervisors and admins now")
}

func promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The username.")
	addUserEmail := addUserCmd.String("email", "", "The email address.")
	addUserLastName := addUserCmd.String("lastname", "", "The last name.")
	addUserFirstName := addUserCmd.String("firstname", "", "The first name.")
	addUserRole := addUserCmd.String("role", string(user.RoleAdmin), "One of admins, leaders, magistrants, doctorants.")
	addUserProgram := addUserCmd.String("program", "", "The education program code of a student.")
	addUserSupervisor := addUserCmd.String("supervisor", "", "The supervisor ID of a student.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(user.NewUser{
			Username:     *addUserUname,
			Email:        *addUserEmail,
			LastName:     *addUserLastName,
			FirstName:    *addUserFirstName,
			Role:         user.Role(*addUserRole),
			Program:      *addUserProgram,
			SupervisorID: *addUserSupervisor,
			Password:     pwd,
		})
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "createplans":
		n, err := cli.createPlans()
		if err != nil {
			return err
		}
		fmt.Printf("%d study plan(s) created\n", n)
		return nil
	case "digest":
		n, err := cli.sendDigest()
		if err != nil {
			return err
		}
		fmt.Printf("%d digest(s) sent\n", n)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}
