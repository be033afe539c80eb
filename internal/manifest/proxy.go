package manifest

import "fmt"

// ReverseProxyContainer returns the nginx reverse-proxy container document
// devexy installs in place of a workload's original first container during
// reverse routing. The nginx config text is bit-exact with the predecessor's
// embedded config, substituting containerPort and localPort.
func ReverseProxyContainer(containerPort, localPort int) map[string]any {
	nginxConfig := fmt.Sprintf(
		"events {}\n"+
			"http {\n"+
			"  server {\n"+
			"    listen %d;\n"+
			"    location / {\n"+
			"      proxy_pass http://host.minikube.internal:%d;\n"+
			"      proxy_set_header Host $host;\n"+
			"      proxy_set_header X-Real-IP $remote_addr;\n"+
			"      proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;\n"+
			"      proxy_set_header X-Forwarded-Proto $scheme;\n"+
			"    }\n"+
			"  }\n"+
			"}\n",
		containerPort, localPort,
	)

	return map[string]any{
		"name":  ReverseProxyContainerName,
		"image": "nginx:latest",
		"ports": []any{
			map[string]any{"containerPort": containerPort},
		},
		"command": []any{"sh", "-c"},
		"args": []any{
			fmt.Sprintf("echo '%s' > /etc/nginx/nginx.conf && nginx -g 'daemon off;'", nginxConfig),
		},
	}
}

// DefaultReverseProxyContainerPort is used when the original container's
// port cannot be inferred.
const DefaultReverseProxyContainerPort = 80
