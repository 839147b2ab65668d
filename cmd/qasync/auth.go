package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/qa-sync/qasync/pkg/authstore"
	"github.com/qa-sync/qasync/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	authSite    string
	authURL     string
	authProfile string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage saved login sessions",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in manually and save the session cookies",
	Long: `Open a visible browser window on the site's login page. Complete the
login by hand, then press Enter in the terminal to capture and save the
session cookies for later runs.`,
	RunE: runAuthLogin,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sites with saved cookies",
	RunE:  runAuthList,
}

var authDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a site's saved cookies",
	RunE:  runAuthDelete,
}

var authProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List local Chrome profiles",
	Run:   runAuthProfiles,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authListCmd, authDeleteCmd, authProfilesCmd)

	authLoginCmd.Flags().StringVar(&authSite, "site", "", "site name to save cookies under")
	authLoginCmd.Flags().StringVar(&authURL, "url", "", "login page URL")
	authLoginCmd.Flags().StringVar(&authProfile, "profile", "",
		"reuse a local Chrome profile (Chrome must be closed)")
	authDeleteCmd.Flags().StringVar(&authSite, "site", "", "site name")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if authSite == "" || authURL == "" {
		return fmt.Errorf("--site and --url are required")
	}

	opts := &browser.Options{Headless: false}

	if authProfile != "" {
		root, ok := authstore.ChromeProfileDir(authProfile)
		if !ok {
			return fmt.Errorf("chrome profile %q not found", authProfile)
		}

		opts.UserDataDir = root
		opts.ProfileDirectory = authProfile
	}

	session, err := browser.NewChromeSession(context.Background(), log, opts)
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}

	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Debug("Failed to close login session")
		}
	}()

	if err := session.Navigate(authURL, 0); err != nil {
		return fmt.Errorf("opening login page: %w", err)
	}

	fmt.Println("Complete the login in the browser window, then press Enter here.")
	bufio.NewScanner(os.Stdin).Scan()

	cookies, err := session.Cookies()
	if err != nil {
		return fmt.Errorf("reading cookies: %w", err)
	}

	if len(cookies) == 0 {
		return fmt.Errorf("no cookies captured, login may not have completed")
	}

	dir, err := authstore.DefaultDir()
	if err != nil {
		return err
	}

	path, err := authstore.NewStore(log, dir).Save(authSite, cookies)
	if err != nil {
		return err
	}

	fmt.Printf("Saved %d cookies for %s to %s\n", len(cookies), authSite, path)

	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	dir, err := authstore.DefaultDir()
	if err != nil {
		return err
	}

	sites, err := authstore.NewStore(log, dir).List()
	if err != nil {
		return err
	}

	if len(sites) == 0 {
		fmt.Println("No saved sessions.")

		return nil
	}

	for _, site := range sites {
		fmt.Println(site)
	}

	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	if authSite == "" {
		return fmt.Errorf("--site is required")
	}

	dir, err := authstore.DefaultDir()
	if err != nil {
		return err
	}

	deleted, err := authstore.NewStore(log, dir).Delete(authSite)
	if err != nil {
		return err
	}

	if !deleted {
		fmt.Printf("No saved session for %s\n", authSite)

		return nil
	}

	fmt.Printf("Deleted saved session for %s\n", authSite)

	return nil
}

func runAuthProfiles(cmd *cobra.Command, args []string) {
	profiles := authstore.ListChromeProfiles()
	if len(profiles) == 0 {
		fmt.Println("No Chrome installation found.")

		return
	}

	for _, p := range profiles {
		fmt.Println(p)
	}
}
