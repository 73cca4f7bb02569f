package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// OAuth2Config holds OAuth2 configuration.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string        // Where to save the token
	ListenAddr   string        // Callback listener, defaults to localhost:8080
	Timeout      time.Duration // How long to wait for the browser, defaults to 5 minutes
}

func oauthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// callbackHandler forwards the authorization code of the OAuth2 redirect.
func callbackHandler(codes chan<- string, errs chan<- error) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			select {
			case errs <- errors.New("no authorization code received"):
			default:
			}
			http.Error(w, "Authentication failed: no authorization code received. Please try again.", http.StatusBadRequest)
			return
		}

		select {
		case codes <- code:
		default:
		}
		_, _ = fmt.Fprint(w, "Authentication successful. You can close this window and return to the terminal.")
	})
	return mux
}

// AuthenticateOAuth2Interactive performs the OAuth2 flow interactively. The
// user opens the logged URL; the browser redirect delivers the code to a
// local listener.
func AuthenticateOAuth2Interactive(ctx context.Context, config OAuth2Config, logger *slog.Logger) (*oauth2.Token, error) {
	logger = common.OrDiscard(logger).With("component", "sheets_auth")
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: oauth client id and secret", common.ErrMissingConfig)
	}
	if config.ListenAddr == "" {
		config.ListenAddr = "localhost:8080"
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}

	listener, err := net.Listen("tcp", config.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)
	server := &http.Server{
		Handler:           callbackHandler(codeChan, errorChan),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			select {
			case errorChan <- fmt.Errorf("callback server failed: %w", serveErr):
			default:
			}
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	oauthCfg := oauthConfig(config.ClientID, config.ClientSecret, fmt.Sprintf("http://%s/callback", listener.Addr()))
	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	logger.Info("Google Sheets authentication required")
	logger.Info("Please visit this URL to authenticate", "url", authURL)

	var authCode string
	select {
	case authCode = <-codeChan:
		logger.Info("Received authorization code")
	case err := <-errorChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(config.Timeout):
		return nil, fmt.Errorf("authentication timeout - no response received within %s", config.Timeout)
	}

	token, err := oauthCfg.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := SaveToken(config.TokenFile, token); err != nil {
			logger.Warn("Failed to save token to file", "error", err, "file", config.TokenFile)
		} else {
			logger.Info("Token saved", "file", config.TokenFile)
		}
	}

	return token, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", tokenFile, err)
	}
	return token, nil
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// GetOrCreateToken returns the token saved in config.TokenFile, or runs the
// interactive flow when there is none.
func GetOrCreateToken(ctx context.Context, config OAuth2Config, logger *slog.Logger) (*oauth2.Token, error) {
	if config.TokenFile != "" {
		token, err := LoadToken(config.TokenFile)
		if err == nil && token.RefreshToken != "" {
			common.OrDiscard(logger).Info("Loaded existing token", "file", config.TokenFile)
			return token, nil
		}
	}

	return AuthenticateOAuth2Interactive(ctx, config, logger)
}
