package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"skillcheck/internal/client"
	"skillcheck/internal/session"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "assessment server base URL")
	assessmentID := flag.String("assessment", "", "assessment id to take")
	username := flag.String("username", "student", "candidate username")
	password := flag.String("password", "password123", "candidate password")
	flag.Parse()

	if *assessmentID == "" {
		log.Fatal("missing -assessment")
	}

	ctx := context.Background()

	login, err := client.Login(ctx, *serverURL, *username, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	fmt.Printf("Logged in as %s\n", login.CandidateID)

	api := client.NewClient(*serverURL, login.Token)

	done := make(chan session.Snapshot, 1)
	ctrl := session.NewController(api, *assessmentID,
		session.WithListener(func(snap session.Snapshot) {
			switch snap.State {
			case session.StateSubmitting:
				fmt.Println("\nSubmitting...")
			case session.StateCompleted:
				select {
				case done <- snap:
				default:
				}
			}
		}),
	)
	defer ctrl.Close()

	if err := ctrl.Start(ctx); err != nil {
		log.Fatalf("failed to start session: %v", err)
	}

	snap := ctrl.Snapshot()
	if snap.State == session.StateCompleted {
		printResult(snap)
		return
	}

	fmt.Println("Commands: a-d answer | n next | p previous | j N jump | s status | f finish")
	printQuestion(snap)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case snap := <-done:
			printResult(snap)
			return
		default:
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())

		var err error
		switch {
		case input == "a" || input == "b" || input == "c" || input == "d":
			err = ctrl.SelectOption(strings.ToUpper(input))
		case input == "n":
			err = ctrl.Next()
		case input == "p":
			err = ctrl.Back()
		case strings.HasPrefix(input, "j "):
			var idx int
			idx, err = strconv.Atoi(strings.TrimPrefix(input, "j "))
			if err == nil {
				err = ctrl.JumpTo(idx - 1)
			}
		case input == "s":
			snap := ctrl.Snapshot()
			fmt.Printf("Answered %d, remaining %d, %ds left\n",
				snap.AnsweredCount, snap.RemainingCount, snap.RemainingSeconds)
			continue
		case input == "f":
			if ctrl.Finish() {
				printResult(<-done)
				return
			}
			err = fmt.Errorf("session already finishing")
		case input == "":
			continue
		default:
			fmt.Println("unknown command")
			continue
		}

		if err != nil {
			snap := ctrl.Snapshot()
			if snap.State == session.StateCompleted {
				printResult(snap)
				return
			}
			fmt.Printf("error: %v\n", err)
			continue
		}

		printQuestion(ctrl.Snapshot())
	}
}

func printQuestion(snap session.Snapshot) {
	if snap.Question == nil {
		return
	}
	q := snap.Question
	fmt.Printf("\n[Q%d] %s (%ds left)\n", snap.CurrentIndex+1, q.QuestionText, snap.RemainingSeconds)
	fmt.Printf("  A) %s\n  B) %s\n  C) %s\n  D) %s\n", q.OptionA, q.OptionB, q.OptionC, q.OptionD)
	if snap.SelectedOption != "" {
		fmt.Printf("  selected: %s\n", snap.SelectedOption)
	}
}

func printResult(snap session.Snapshot) {
	if snap.Result == nil {
		fmt.Println("\nAssessment complete.")
		return
	}
	if snap.Result.Placeholder {
		fmt.Println("\nAssessment complete. Score could not be retrieved; it will appear on your dashboard.")
		return
	}
	fmt.Printf("\nAssessment complete. Score: %d, scholarship offered: %d%%\n",
		snap.Result.Score, snap.Result.Scholarship)
}
