package socket

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

func loadServerTLSConfig(cfg *Config) (*tls.Config, error) {
	// if no TLS config is provided, return nil
	if cfg.ServerCert == "" || cfg.ServerKey == "" {
		return nil, nil
	}

	config := &tls.Config{}
	cert, err := tls.LoadX509KeyPair(cfg.ServerCert, cfg.ServerKey)
	if err != nil {
		return nil, err
	}
	config.Certificates = []tls.Certificate{cert}

	caCertPool := x509.NewCertPool()
	for _, serverCA := range cfg.ServerCAs {
		caCert, err := os.ReadFile(serverCA)
		if err != nil {
			return nil, err
		}
		if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
			return nil, fmt.Errorf("no certificates parsed from %s", serverCA)
		}
	}
	config.ClientCAs = caCertPool
	config.ClientAuth = tls.RequireAndVerifyClientCert
	if cfg.ServerSkipVerify {
		config.ClientAuth = tls.NoClientCert
	}

	return config, nil
}

func loadClientTLSConfig(cfg *Config) (*tls.Config, error) {
	// if no TLS config is provided, return nil
	if cfg.ClientCert == "" || cfg.ClientKey == "" {
		return nil, nil
	}

	config := &tls.Config{}
	cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
	if err != nil {
		return nil, err
	}
	config.Certificates = []tls.Certificate{cert}

	caCertPool := x509.NewCertPool()
	for _, clientCA := range cfg.ClientCAs {
		caCert, err := os.ReadFile(clientCA)
		if err != nil {
			return nil, err
		}
		if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
			return nil, fmt.Errorf("no certificates parsed from %s", clientCA)
		}
	}
	config.RootCAs = caCertPool
	config.InsecureSkipVerify = cfg.ClientSkipVerify

	return config, nil
}
